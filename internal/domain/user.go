package domain

type User struct {
	ID             int32  `json:"id"`
	Username       string `json:"username"`
	HashedPassword string `json:"-"`
	FullName       string `json:"full_name"`
	CreatedOn      string `json:"created_on"`
}
