package user

import (
	"time"
)

// User 用户实体（聚合根）
// 密码以bcrypt哈希存储；领域实体不依赖GORM tag
type User struct {
	ID         uint
	Email      string
	Password   string // bcrypt哈希值
	Nickname   string
	ProfileKey string // 头像在对象存储中的key
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewUser 创建新用户（工厂方法）
// hashedPassword必须是bcrypt加密后的密码
func NewUser(email, hashedPassword, nickname, profileKey string) *User {
	now := time.Now()
	return &User{
		Email:      email,
		Password:   hashedPassword,
		Nickname:   nickname,
		ProfileKey: profileKey,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// UpdateNickname 更新昵称（领域行为）
func (u *User) UpdateNickname(nickname string) {
	u.Nickname = nickname
	u.UpdatedAt = time.Now()
}
