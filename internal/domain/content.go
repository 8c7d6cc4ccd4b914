package domain

import "time"

// ClassSession is a scheduled baking class from the content backend.
type ClassSession struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	StartsAt    time.Time  `json:"startsAt"`
	EndsAt      *time.Time `json:"endsAt,omitempty"`
	Seats       int        `json:"seats"`
	Price       string     `json:"price,omitempty"`
	BookingURL  string     `json:"bookingUrl,omitempty"`
	Image       *Image     `json:"image,omitempty"`
}

type Promotion struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Body        string     `json:"body,omitempty"`
	ProductRef  string     `json:"productHandle,omitempty"`
	ActiveFrom  *time.Time `json:"activeFrom,omitempty"`
	ActiveUntil *time.Time `json:"activeUntil,omitempty"`
	Image       *Image     `json:"image,omitempty"`
}
