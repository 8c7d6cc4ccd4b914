package shopify

import (
	"context"

	"github.com/hearthbakery/storefront/internal/domain"
)

// ClientCartAttribute is the checkout attribute that carries the client cart
// id back on the order webhook.
const ClientCartAttribute = "client_cart_id"

const cartCreateMutation = `mutation CartCreate($input: CartInput!) {
  cartCreate(input: $input) {
    cart { id checkoutUrl }
    userErrors { field message }
  }
}`

type cartLineInput struct {
	MerchandiseID string `json:"merchandiseId"`
	Quantity      int    `json:"quantity"`
}

type attributeInput struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type cartInput struct {
	Lines      []cartLineInput  `json:"lines"`
	Attributes []attributeInput `json:"attributes,omitempty"`
}

type Checkout struct {
	CartID      string
	CheckoutURL string
}

// CreateCart starts a checkout session for items. The first user error, if
// any, is returned as a *UserError.
func (c *Client) CreateCart(ctx context.Context, items []domain.CheckoutItem, clientCartID string) (*Checkout, error) {
	input := cartInput{Lines: make([]cartLineInput, len(items))}
	for i, it := range items {
		input.Lines[i] = cartLineInput{MerchandiseID: it.VariantID, Quantity: it.Quantity}
	}
	if clientCartID != "" {
		input.Attributes = []attributeInput{{Key: ClientCartAttribute, Value: clientCartID}}
	}

	var data struct {
		CartCreate struct {
			Cart *struct {
				ID          string `json:"id"`
				CheckoutURL string `json:"checkoutUrl"`
			} `json:"cart"`
			UserErrors []UserError `json:"userErrors"`
		} `json:"cartCreate"`
	}
	if err := c.do(ctx, cartCreateMutation, map[string]any{"input": input}, &data); err != nil {
		return nil, err
	}

	if len(data.CartCreate.UserErrors) > 0 {
		ue := data.CartCreate.UserErrors[0]
		return nil, &ue
	}

	out := &Checkout{}
	if cart := data.CartCreate.Cart; cart != nil {
		out.CartID = cart.ID
		out.CheckoutURL = cart.CheckoutURL
	}
	return out, nil
}
