package domain

// DeadlineRanges buckets demands by calendar days remaining.
type DeadlineRanges struct {
	Overdue  int `json:"atrasadas"`
	Urgent   int `json:"urgentes"`
	Upcoming int `json:"proximas"`
	Normal   int `json:"normais"`
}

// AssigneeCount is one row of the assignee ranking.
type AssigneeCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Statistics is the dashboard aggregate over all cached demands. JSON names
// follow the dashboard's field names.
type Statistics struct {
	Total              int             `json:"total"`
	Pending            int             `json:"pendentes"`
	Completed          int             `json:"concluidas"`
	CompletionRate     int             `json:"taxaConclusao"`
	ShortDeadlines     int             `json:"prazosCurtos"`
	Overdue            int             `json:"atrasadas"`
	Extended           int             `json:"prorrogadas"`
	Supplemented       int             `json:"complementadas"`
	PossivelRespondida int             `json:"possivelRespondida"`
	PossivelObservacao int             `json:"possivelobservacao"`
	ByAssignee         map[string]int  `json:"byResponsavel"`
	TopAssignees       []AssigneeCount `json:"topResponsaveis"`
	ByDeadlineRange    DeadlineRanges  `json:"byPrazoRange"`
}
