package storefront

// GraphQL documents sent to the storefront endpoint. Only the fields
// the client consumes are requested.

const cartCreateMutation = `
mutation cartCreate($input: CartInput!) {
  cartCreate(input: $input) {
    cart {
      id
      checkoutUrl
    }
    userErrors {
      field
      message
    }
  }
}`

const cartLinesUpdateMutation = `
mutation cartLinesUpdate($cartId: ID!, $lines: [CartLineUpdateInput!]!) {
  cartLinesUpdate(cartId: $cartId, lines: $lines) {
    cart {
      id
      checkoutUrl
    }
    userErrors {
      field
      message
    }
  }
}`

const variantAvailabilityQuery = `
query variantAvailability($id: ID!) {
  node(id: $id) {
    ... on ProductVariant {
      availableForSale
      currentlyNotInStock
    }
  }
}`

const customerTokenCreateMutation = `
mutation customerAccessTokenCreate($input: CustomerAccessTokenCreateInput!) {
  customerAccessTokenCreate(input: $input) {
    customerAccessToken {
      accessToken
      expiresAt
    }
    customerUserErrors {
      field
      message
    }
  }
}`

const customerTokenDeleteMutation = `
mutation customerAccessTokenDelete($customerAccessToken: String!) {
  customerAccessTokenDelete(customerAccessToken: $customerAccessToken) {
    deletedAccessToken
  }
}`

const collectionsQuery = `
query collections($first: Int!, $after: String) {
  collections(first: $first, after: $after) {
    edges {
      node {
        id
        title
        description
        image {
          url
        }
      }
    }
    pageInfo {
      endCursor
      hasNextPage
    }
  }
}`

const productsQuery = `
query collectionProducts($collectionId: ID!, $first: Int!, $after: String) {
  node(id: $collectionId) {
    ... on Collection {
      products(first: $first, after: $after) {
        edges {
          node {
            id
            title
            vendor
            featuredImage {
              url
            }
            variants(first: 50) {
              edges {
                node {
                  id
                  title
                  price {
                    amount
                  }
                  availableForSale
                  currentlyNotInStock
                }
              }
            }
          }
        }
        pageInfo {
          endCursor
          hasNextPage
        }
      }
    }
  }
}`
