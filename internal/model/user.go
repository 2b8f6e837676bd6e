package model

// swagger:model User
type User struct {
	UUIDBase
	Name       string `gorm:"column:nombre;size:120;not null" json:"nombre"`
	Occupation string `gorm:"column:ocupacion;size:120" json:"ocupacion"`
}

func (User) TableName() string {
	return "usuarios"
}
