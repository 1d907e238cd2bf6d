package models

// Settings scopes used by factory defaults.
const (
	ScopeGlobal = "global"
	ScopeClass  = "class"
	ScopeForm   = "form"
)

type Default struct {
	Key   string `gorm:"primaryKey" json:"key"`
	Value string `json:"value"`
}

type FormSetting struct {
	FormName string `gorm:"primaryKey" json:"form_name"`
	Key      string `gorm:"primaryKey" json:"key"`
	Value    string `json:"value"`
}

type TeacherDefault struct {
	Key   string `gorm:"primaryKey" json:"key"`
	Value string `json:"value"`
}

// FactoryDefault rows are read-only at runtime; FormName is nil outside the form scope.
type FactoryDefault struct {
	ID       uint    `gorm:"primaryKey"`
	Scope    string  `gorm:"index:idx_factory_lookup;not null" json:"scope"`
	FormName *string `gorm:"index:idx_factory_lookup" json:"form_name"`
	Key      string  `gorm:"index:idx_factory_lookup;not null" json:"key"`
	Value    string  `json:"value"`
}
