package domain

type Product struct {
	ID          string    `json:"id"`
	Handle      string    `json:"handle"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Image       *Image    `json:"image,omitempty"`
	PriceRange  Money     `json:"minPrice"`
	Variants    []Variant `json:"variants"`
}

type Variant struct {
	ID                string           `json:"id"`
	Title             string           `json:"title"`
	AvailableForSale  bool             `json:"availableForSale"`
	QuantityAvailable *int             `json:"quantityAvailable,omitempty"`
	Price             Money            `json:"price"`
	SelectedOptions   []SelectedOption `json:"selectedOptions"`
	Image             *Image           `json:"image,omitempty"`
}

// Line builds a cart line for quantity q of this variant.
func (v Variant) Line(p Product, q int) CartLine {
	img := v.Image
	if img == nil {
		img = p.Image
	}
	return CartLine{
		VariantID:         v.ID,
		UnitPrice:         v.Price,
		Quantity:          q,
		SelectedOptions:   v.SelectedOptions,
		AvailableQuantity: v.QuantityAvailable,
		Display: DisplayMetadata{
			ProductTitle: p.Title,
			VariantTitle: v.Title,
			Handle:       p.Handle,
			Image:        img,
		},
	}
}
