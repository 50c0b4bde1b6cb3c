// Package levels defines the ordered permission tiers that gate command
// visibility and execution, and the resolver that computes the tier for a
// (user, channel) pair from static configuration and stored records.
package levels

// Level is a totally ordered trust tier. Higher means more trusted.
// Comparisons use the plain <, <=, >=, > operators on the ordinal.
type Level int

const (
	Blacklisted Level = iota - 1
	NoAccess
	User
	ServerBlacklisted
	ServerUser
	ServerBotAdmin
	ServerAdmin
	ServerOwner
	GlobalBotAdmin
	BotOwner
)

var levelNames = map[Level]string{
	Blacklisted:       "blacklisted",
	NoAccess:          "no_access",
	User:              "user",
	ServerBlacklisted: "server_blacklisted",
	ServerUser:        "server_user",
	ServerBotAdmin:    "server_bot_admin",
	ServerAdmin:       "server_admin",
	ServerOwner:       "server_owner",
	GlobalBotAdmin:    "global_bot_admin",
	BotOwner:          "bot_owner",
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "unknown"
}
