// Package domain defines the task and user records managed through the tool
// layer, their validation rules, and the error taxonomy shared by handlers.
package domain
