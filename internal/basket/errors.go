package basket

import "fmt"

// UnknownProductError is returned by Add when the code has no catalog entry.
type UnknownProductError struct {
	Code string
}

func (e *UnknownProductError) Error() string {
	return fmt.Sprintf("Product with code %s not in product catalogue.", e.Code)
}
