package models

import "github.com/lojf/classbook/internal/dates"

// Flag values for archive, active and the show_* columns.
const (
	Yes = "Yes"
	No  = "No"
)

type Class struct {
	ClassNo     string `gorm:"primaryKey" json:"class_no" validate:"required,max=64"`
	Company     string `json:"company"`
	Consultant  string `json:"consultant"`
	Teacher     string `gorm:"index" json:"teacher"`
	TeacherNo   string `json:"teacher_no"`
	Room        string `json:"room"`
	CourseBook  string `json:"course_book"`
	StartDate   string `json:"start_date" validate:"omitempty,ddmmyyyy"`
	FinishDate  string `json:"finish_date" validate:"omitempty,ddmmyyyy"`
	Time        string `json:"time"`
	Notes       string `json:"notes"`
	Rate        int    `json:"rate" validate:"min=0"`
	CCP         int    `gorm:"column:ccp" json:"ccp" validate:"min=0"`
	Travel      int    `json:"travel" validate:"min=0"`
	Bonus       int    `json:"bonus" validate:"min=0"`
	CourseHours int    `json:"course_hours" validate:"min=0"`
	ClassTime   int    `json:"class_time" validate:"min=0"`
	MaxClasses  int    `json:"max_classes" validate:"min=0"`
	Days        string `json:"days" validate:"weekdays"`
	CodCia      string `json:"cod_cia"`
	Archive     string `gorm:"default:No" json:"archive" validate:"oneof=Yes No"`

	// BonusClaimed is the YYYY-MM month the bonus was paid out in; empty means unclaimed.
	BonusClaimed string `json:"bonus_claimed" validate:"omitempty,yyyymm"`

	ShowNickname  string `gorm:"default:Yes" json:"show_nickname" validate:"oneof=Yes No"`
	ShowCompanyNo string `gorm:"default:Yes" json:"show_company_no" validate:"oneof=Yes No"`
	ShowScore     string `gorm:"default:Yes" json:"show_score" validate:"oneof=Yes No"`
	ShowPrestest  string `gorm:"default:Yes" json:"show_prestest" validate:"oneof=Yes No"`
	ShowPosttest  string `gorm:"default:Yes" json:"show_posttest" validate:"oneof=Yes No"`
	ShowAttn      string `gorm:"default:Yes" json:"show_attn" validate:"oneof=Yes No"`
	ShowP         string `gorm:"column:show_p;default:Yes" json:"show_p" validate:"oneof=Yes No"`
	ShowA         string `gorm:"column:show_a;default:Yes" json:"show_a" validate:"oneof=Yes No"`
	ShowL         string `gorm:"column:show_l;default:Yes" json:"show_l" validate:"oneof=Yes No"`
}

// DayList splits the comma separated weekday names.
func (c Class) DayList() []string {
	return dates.SplitDays(c.Days)
}

func (c Class) Archived() bool { return c.Archive == Yes }

// VisibilityColumns lists the per-class display toggles by column name.
var VisibilityColumns = []string{
	"show_nickname", "show_company_no", "show_score", "show_prestest",
	"show_posttest", "show_attn", "show_p", "show_a", "show_l",
}

type Student struct {
	StudentID string `gorm:"primaryKey" json:"student_id"`
	ClassNo   string `gorm:"index;not null" json:"class_no" validate:"required"`
	Name      string `json:"name" validate:"required,max=200"`
	Nickname  string `json:"nickname"`
	CompanyNo string `json:"company_no"`
	Gender    string `json:"gender"`
	Score     string `json:"score"`
	PreTest   string `json:"pre_test"`
	PostTest  string `json:"post_test"`
	Note      string `json:"note"`
	Active    string `gorm:"default:Yes" json:"active" validate:"oneof=Yes No"`
}

// ClassStudent is the explicit enrollment link.
type ClassStudent struct {
	ClassNo   string `gorm:"primaryKey"`
	StudentID string `gorm:"primaryKey"`
}

// ClassDate is one entry of a class's scheduled list.
type ClassDate struct {
	ClassNo string `gorm:"primaryKey" json:"class_no"`
	Date    string `gorm:"primaryKey" json:"date"`
	Note    string `json:"note"`
}

func (ClassDate) TableName() string { return "dates" }

type Attendance struct {
	ClassNo   string `gorm:"primaryKey" json:"class_no"`
	StudentID string `gorm:"primaryKey" json:"student_id"`
	Date      string `gorm:"primaryKey" json:"date"`
	Status    Status `gorm:"type:varchar(4);not null" json:"status"`
}

func (Attendance) TableName() string { return "attendance" }

// Holiday is informational for the calendar; it never drives attendance.
type Holiday struct {
	Date string `gorm:"primaryKey" json:"date"`
	Name string `json:"name"`
}
