package auth

// Identity 请求方身份，值类型，不可变
// 零值即匿名身份
type Identity struct {
	userID   uint
	username string
}

// Anonymous 匿名身份
func Anonymous() Identity {
	return Identity{}
}

// Authenticated 已登录身份
func Authenticated(userID uint, username string) Identity {
	return Identity{userID: userID, username: username}
}

// IsAuthenticated 是否已登录
func (i Identity) IsAuthenticated() bool {
	return i.userID != 0
}

// UserID 匿名身份返回0
func (i Identity) UserID() uint {
	return i.userID
}

func (i Identity) Username() string {
	return i.username
}

func (i Identity) String() string {
	if !i.IsAuthenticated() {
		return "anonymous"
	}
	return i.username
}
