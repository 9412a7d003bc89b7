package records

import "testing"

func TestValidateRating(t *testing.T) {
	for _, rating := range []int{1, 2, 3, 4, 5} {
		if err := ValidateRating(rating); err != nil {
			t.Errorf("rating %d should be valid, got %v", rating, err)
		}
	}
	for _, rating := range []int{0, -1, 6, 100} {
		if err := ValidateRating(rating); err != ErrInvalidRating {
			t.Errorf("rating %d: expected ErrInvalidRating, got %v", rating, err)
		}
	}
}
