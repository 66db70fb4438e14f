package tools

import "fmt"

// Mounting is the camera mounting orientation passed to nav2cam.
type Mounting int

const (
	RightForwards Mounting = iota
	LeftForwards
	TopForwards
	BottomForwards
)

func (m Mounting) String() string {
	switch m {
	case RightForwards:
		return "right-forwards"
	case LeftForwards:
		return "left-forwards"
	case TopForwards:
		return "top-forwards"
	case BottomForwards:
		return "bottom-forwards"
	}
	return fmt.Sprintf("mounting(%d)", int(m))
}

// ParseMounting validates the numeric mounting value from flags or config.
func ParseMounting(v int) (Mounting, error) {
	if v < int(RightForwards) || v > int(BottomForwards) {
		return 0, fmt.Errorf("camera mounting must be 0-3, got %d", v)
	}
	return Mounting(v), nil
}
