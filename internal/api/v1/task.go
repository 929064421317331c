package v1

// TaskResponse is returned when work is handed to the task runner.
type TaskResponse struct {
	Message  string             `json:"message"`
	TaskID   string             `json:"task_id"`
	Count    int                `json:"count"`
	Rejected []*ValidationError `json:"rejected,omitempty"`
}

// TaskStatus is the public view of a finished task.
type TaskStatus struct {
	TaskID   string      `json:"task_id"`
	Status   string      `json:"status"`
	Attempts int         `json:"attempts"`
	Result   interface{} `json:"result,omitempty"`
	Error    string      `json:"error,omitempty"`
}
