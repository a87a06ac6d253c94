package dto

type CreateTaskRequest struct {
	Title       string `form:"taskTitle"`
	Description string `form:"taskDescription"`
	DueAt       string `form:"taskDate"`
}

type UpdateTaskRequest struct {
	Title       string `form:"taskTitle"`
	Description string `form:"taskDescription"`
	DueAt       string `form:"taskDate" binding:"required"`
}
