package bot

import "context"

// Access levels gate the admin commands. New profiles start at AccessNone.
const (
	AccessNone    = 0
	AccessSupport = 1
	AccessModer   = 2
	AccessAdmin   = 3
)

// Profile is one Telegram user known to the bot.
type Profile struct {
	ID       int64
	Username string
	Access   int
	Banned   bool
}

// ProfileStore persists user profiles.
type ProfileStore interface {
	Get(ctx context.Context, id int64) (Profile, bool, error)
	Create(ctx context.Context, p Profile) error
	SetAccess(ctx context.Context, id int64, access int) error
	SetBan(ctx context.Context, id int64, banned bool) error
	IDByUsername(ctx context.Context, username string) (int64, bool, error)
}
