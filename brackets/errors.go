package brackets

import "errors"

var (
	ErrUnsupportedFormat  = errors.New("unsupported stage format")
	ErrNotEnoughEntrants  = errors.New("not enough participants (minimum 2)")
	ErrInvalidManualOrder = errors.New("manual seeding order must list every participant exactly once")
	ErrInvalidGroupCount  = errors.New("group count must leave at least 2 participants per group")
	ErrNoPairingPossible  = errors.New("no pairing possible for swiss round")
	ErrUnknownSeedPolicy  = errors.New("unknown seeding policy")
)
