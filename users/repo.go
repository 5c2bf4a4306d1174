package users

type UserRepo interface {
	Upsert(user *User) error
	GetByEmail(email string) (*User, error)
	GetByID(id int64) (*User, error)
	List(offset, limit int) ([]*User, error)
	SetLastLogin(id int64) error
}
