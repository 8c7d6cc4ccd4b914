package shopify

import (
	"context"

	"github.com/hearthbakery/storefront/internal/domain"
)

const productFields = `
  id
  handle
  title
  description
  featuredImage { url altText }
  priceRange { minVariantPrice { amount currencyCode } }
  variants(first: 50) {
    nodes {
      id
      title
      availableForSale
      quantityAvailable
      price { amount currencyCode }
      selectedOptions { name value }
      image { url altText }
    }
  }
`

const productsQuery = `query Products($first: Int!) {
  products(first: $first, sortKey: TITLE) {
    nodes {` + productFields + `}
  }
}`

const productByHandleQuery = `query ProductByHandle($handle: String!) {
  product(handle: $handle) {` + productFields + `}
}`

type productNode struct {
	ID            string        `json:"id"`
	Handle        string        `json:"handle"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	FeaturedImage *domain.Image `json:"featuredImage"`
	PriceRange    struct {
		MinVariantPrice domain.Money `json:"minVariantPrice"`
	} `json:"priceRange"`
	Variants struct {
		Nodes []domain.Variant `json:"nodes"`
	} `json:"variants"`
}

func (n productNode) toDomain() domain.Product {
	return domain.Product{
		ID:          n.ID,
		Handle:      n.Handle,
		Title:       n.Title,
		Description: n.Description,
		Image:       n.FeaturedImage,
		PriceRange:  n.PriceRange.MinVariantPrice,
		Variants:    n.Variants.Nodes,
	}
}

func (c *Client) Products(ctx context.Context, first int) ([]domain.Product, error) {
	var data struct {
		Products struct {
			Nodes []productNode `json:"nodes"`
		} `json:"products"`
	}
	if err := c.do(ctx, productsQuery, map[string]any{"first": first}, &data); err != nil {
		return nil, err
	}

	products := make([]domain.Product, len(data.Products.Nodes))
	for i, n := range data.Products.Nodes {
		products[i] = n.toDomain()
	}
	return products, nil
}

func (c *Client) ProductByHandle(ctx context.Context, handle string) (*domain.Product, error) {
	var data struct {
		Product *productNode `json:"product"`
	}
	if err := c.do(ctx, productByHandleQuery, map[string]any{"handle": handle}, &data); err != nil {
		return nil, err
	}
	if data.Product == nil {
		return nil, ErrProductNotFound
	}
	p := data.Product.toDomain()
	return &p, nil
}
