package domain

// Presence is the online state of a registered user.
type Presence string

const (
	Online  Presence = "Online"
	Offline Presence = "Offline"
)

// User models a registered account. NickName is the unique key and is
// immutable after registration. Endpoint holds the remote TCP address the
// user logged in from and is meaningful only while Presence is Online.
//
// Passwords are stored and compared in the clear; hardening them is an
// explicit non-goal of this server.
type User struct {
	NickName string   `json:"nickName" bson:"nick_name"`
	Password string   `json:"psw" bson:"password"`
	Presence Presence `json:"-" bson:"-"`
	Endpoint string   `json:"-" bson:"-"`
}

// NewUser creates an Offline user with no bound endpoint.
func NewUser(nick, password string) *User {
	return &User{NickName: nick, Password: password, Presence: Offline}
}
