package org

type Employee struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Email        string       `json:"email,omitempty"`
	JobTitle     string       `json:"jobTitle,omitempty"`
	Active       bool         `json:"active"`
	Type         EmployeeType `json:"employeeType"`
	OnProbation  bool         `json:"onProbation"`
	DepartmentID string       `json:"departmentId,omitempty"`
	ReportsTo    string       `json:"reportsTo,omitempty"`
}

func (e Employee) HasSuperior() bool {
	return e.ReportsTo != ""
}

// Ancestor is one hop of the reports-to walk. Level 2 is the superior's
// superior, matching approval level numbering.
type Ancestor struct {
	Level    int    `json:"level"`
	ID       string `json:"id"`
	Name     string `json:"name"`
	JobTitle string `json:"jobTitle,omitempty"`
	Active   bool   `json:"active"`
}
