// internal/app/system/inputval/schemas.go
package inputval

import (
	"github.com/go-playground/validator/v10"
)

// Auth

type RegisterInput struct {
	Name            string `form:"name" json:"name" sanitize:"strict" validate:"required,max=100" label:"Name"`
	Username        string `form:"username" json:"username" sanitize:"strict" validate:"required,username" label:"Username"`
	Email           string `form:"email" json:"email" sanitize:"email" validate:"required,email,max=254" label:"Email"`
	Password        string `form:"password" json:"password" validate:"required,password" label:"Password"`
	ConfirmPassword string `form:"confirmPassword" json:"confirmPassword" validate:"required,eqfield=Password" label:"Confirm password"`
}

type LoginInput struct {
	Identifier string `form:"identifier" json:"identifier" sanitize:"strict" validate:"required,max=254" label:"Username or email"`
	Password   string `form:"password" json:"password" validate:"required,max=72" label:"Password"`
	ReturnTo   string `form:"returnTo" json:"returnTo" validate:"max=2048" label:"Return URL"`
}

type ForgotPasswordInput struct {
	Email string `form:"email" json:"email" sanitize:"email" validate:"required,email" label:"Email"`
}

type ResendVerificationInput struct {
	Email string `form:"email" json:"email" sanitize:"email" validate:"required,email" label:"Email"`
}

type ResetPasswordInput struct {
	Password        string `form:"password" json:"password" validate:"required,password" label:"Password"`
	ConfirmPassword string `form:"confirmPassword" json:"confirmPassword" validate:"required,eqfield=Password" label:"Confirm password"`
}

// User

type ProfileInput struct {
	Name     string `form:"name" json:"name" sanitize:"strict" validate:"required,max=100" label:"Name"`
	Username string `form:"username" json:"username" sanitize:"strict" validate:"required,username" label:"Username"`
	Avatar   string `form:"avatar" json:"avatar" sanitize:"url" validate:"omitempty,httpurl" label:"Avatar"`
}

type RoleRequestInput struct {
	ClubID  string `form:"clubId" json:"clubId" validate:"required,objectid" label:"Club"`
	Message string `form:"message" json:"message" sanitize:"strict" validate:"max=1000" label:"Message"`
}

type ChangePasswordInput struct {
	CurrentPassword string `form:"currentPassword" json:"currentPassword" validate:"required" label:"Current password"`
	Password        string `form:"password" json:"password" validate:"required,password" label:"New password"`
	ConfirmPassword string `form:"confirmPassword" json:"confirmPassword" validate:"required,eqfield=Password" label:"Confirm password"`
}

// Event

type SponsorInput struct {
	Name    string `form:"name" json:"name" sanitize:"strict" validate:"required,max=200" label:"Sponsor name"`
	Website string `form:"website" json:"website" sanitize:"url" validate:"omitempty,httpurl" label:"Sponsor website"`
}

type WinnerInput struct {
	Position string `form:"position" json:"position" sanitize:"strict" validate:"required,max=50" label:"Winner position"`
	Name     string `form:"name" json:"name" sanitize:"strict" validate:"required,max=200" label:"Winner name"`
}

type ReportInput struct {
	Title string `form:"title" json:"title" sanitize:"strict" validate:"required,max=200" label:"Report title"`
	URL   string `form:"url" json:"url" sanitize:"url" validate:"required,httpurl" label:"Report URL"`
}

type EventInput struct {
	Title       string         `form:"title" json:"title" sanitize:"strict" validate:"required,max=200" label:"Title"`
	Description string         `form:"description" json:"description" sanitize:"rich" validate:"required,max=20000" label:"Description"`
	Type        string         `form:"type" json:"type" sanitize:"strict" validate:"required,eventtype" label:"Event type"`
	StartDate   string         `form:"startDate" json:"startDate" validate:"required,datetime=2006-01-02" label:"Start date"`
	EndDate     string         `form:"endDate" json:"endDate" validate:"required,datetime=2006-01-02" label:"End date"`
	StartTime   string         `form:"startTime" json:"startTime" validate:"omitempty,hhmm" label:"Start time"`
	EndTime     string         `form:"endTime" json:"endTime" validate:"omitempty,hhmm" label:"End time"`
	Location    string         `form:"location" json:"location" sanitize:"strict" validate:"required,max=300" label:"Location"`
	Image       string         `form:"image" json:"image" sanitize:"url" validate:"omitempty,httpurl" label:"Image"`
	Club        string         `form:"club" json:"club" validate:"required,objectid" label:"Club"`
	CollabClubs []string       `form:"collabClubs" json:"collabClubs" validate:"max=20,dive,objectid" label:"Collaborating clubs"`
	EventLeads  []string       `form:"eventLeads" json:"eventLeads" sanitize:"strict" validate:"max=20,dive,max=100" label:"Event leads"`
	Sponsors    []SponsorInput `form:"sponsors" json:"sponsors" validate:"max=50,dive" label:"Sponsors"`
	Winners     []WinnerInput  `form:"winners" json:"winners" validate:"max=50,dive" label:"Winners"`
	Reports     []ReportInput  `form:"reports" json:"reports" validate:"max=50,dive" label:"Reports"`
}

// Club

type ClubInput struct {
	Name        string `form:"name" json:"name" sanitize:"strict" validate:"required,max=100" label:"Club name"`
	Description string `form:"description" json:"description" sanitize:"basic" validate:"required,max=500" label:"Description"`
	About       string `form:"about" json:"about" sanitize:"rich" validate:"max=20000" label:"About"`
	Image       string `form:"image" json:"image" sanitize:"url" validate:"omitempty,httpurl" label:"Image"`
	Banner      string `form:"banner" json:"banner" sanitize:"url" validate:"omitempty,httpurl" label:"Banner"`
}

type GalleryInput struct {
	URL     string `form:"url" json:"url" sanitize:"url" validate:"required,httpurl" label:"Image URL"`
	Caption string `form:"caption" json:"caption" sanitize:"strict" validate:"max=200" label:"Caption"`
}

// Recruitment

type FormFieldInput struct {
	Label    string   `form:"label" json:"label" sanitize:"strict" validate:"required,max=100" label:"Field label"`
	Name     string   `form:"name" json:"name" sanitize:"strict" validate:"required,max=50,alphanum" label:"Field name"`
	Type     string   `form:"type" json:"type" sanitize:"strict" validate:"required,fieldtype" label:"Field type"`
	Required bool     `form:"required" json:"required"`
	Options  []string `form:"options" json:"options" sanitize:"strict" validate:"max=50,dive,max=100" label:"Field options"`
}

type RecruitmentInput struct {
	Title       string           `form:"title" json:"title" sanitize:"strict" validate:"required,max=200" label:"Title"`
	Description string           `form:"description" json:"description" sanitize:"rich" validate:"max=20000" label:"Description"`
	Club        string           `form:"club" json:"club" validate:"required,objectid" label:"Club"`
	Deadline    string           `form:"deadline" json:"deadline" validate:"required,datetime=2006-01-02" label:"Deadline"`
	Fields      []FormFieldInput `form:"fields" json:"fields" validate:"max=30,dive" label:"Form fields"`
}

type ApplyInput struct {
	Name    string            `form:"name" json:"name" sanitize:"strict" validate:"required,max=100" label:"Name"`
	Email   string            `form:"email" json:"email" sanitize:"email" validate:"required,email" label:"Email"`
	Answers map[string]string `form:"-" json:"answers"` // checked by CheckAnswers
}

// Admin

type RoleChangeInput struct {
	Role string `form:"role" json:"role" validate:"required,role" label:"Role"`
}

type ModeratorInput struct {
	UserID string `form:"userId" json:"userId" validate:"required,objectid" label:"User"`
}

type RoleDecisionInput struct {
	Approve bool `form:"approve" json:"approve"`
}

// Announcement

type AnnouncementInput struct {
	Title   string `form:"title" json:"title" sanitize:"strict" validate:"required,max=200" label:"Title"`
	Message string `form:"message" json:"message" sanitize:"rich" validate:"required,max=10000" label:"Message"`
	Club    string `form:"club" json:"club" validate:"omitempty,objectid" label:"Club"`
}

// Params and queries

type IDParam struct {
	ID string `validate:"required,objectid" label:"ID"`
}

type UsernameParam struct {
	Username string `validate:"required,username" label:"Username"`
}

type ListQuery struct {
	Q    string `form:"q" json:"q" sanitize:"strict" validate:"max=200" label:"Search"`
	Page int    `form:"page" json:"page" validate:"gte=0,lte=10000" label:"Page"`
	Type string `form:"type" json:"type" sanitize:"strict" validate:"omitempty,eventtype" label:"Event type"`
}

func registerStructRules(v *validator.Validate) {
	v.RegisterStructValidation(eventDates, EventInput{})
}

// eventDates requires EndDate on or after StartDate. Malformed dates are
// reported by their own field rules.
func eventDates(sl validator.StructLevel) {
	in := sl.Current().Interface().(EventInput)
	start, err1 := ParseDate(in.StartDate)
	end, err2 := ParseDate(in.EndDate)
	if err1 != nil || err2 != nil {
		return
	}
	if end.Before(start) {
		sl.ReportError(in.EndDate, "endDate", "EndDate", "enddate", "")
	}
}
