package models

// FlatRow is one row of the uploaded project spreadsheet
type FlatRow struct {
	Name         string  `json:"name"`
	ItemID       string  `json:"item_id"`
	ActivityType string  `json:"activity_type"`
	IsTitle      bool    `json:"is_title"`
	StartDate    *string `json:"start_date"`
	EndDate      *string `json:"end_date"`
	Team         string  `json:"team"`
	Status       string  `json:"status"`
	Completed    int     `json:"completed"`
}

// UpdateRecord is a change echoed to the spreadsheet writer
type UpdateRecord struct {
	ProjectName  string  `json:"project_name" validate:"required,max=512"`
	NewStartDate *string `json:"new_start_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	NewEndDate   *string `json:"new_end_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	NewStatus    *string `json:"new_status,omitempty" validate:"omitempty,task_status"`
	NewProgress  *int    `json:"new_progress,omitempty" validate:"omitempty,min=0,max=100"`
	Reason       string  `json:"reason" validate:"max=2000"`
}
