package org

import "strings"

type EmployeeType string

const (
	TypeOfficeStaff      EmployeeType = "office_staff"
	TypeProductionWorker EmployeeType = "production_worker"
	TypeSupervisor       EmployeeType = "supervisor"
	TypeManager          EmployeeType = "manager"
	TypeExecutive        EmployeeType = "executive"
	TypeUnknown          EmployeeType = ""
)

// KnownTypes lists the classifications that carry their own level cap.
var KnownTypes = []EmployeeType{
	TypeOfficeStaff,
	TypeProductionWorker,
	TypeSupervisor,
	TypeManager,
	TypeExecutive,
}

func (t EmployeeType) Known() bool {
	for _, known := range KnownTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ParseEmployeeType normalises free-form input ("Office Staff",
// "production-worker") to a known type, or TypeUnknown.
func ParseEmployeeType(raw string) EmployeeType {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.NewReplacer(" ", "_", "-", "_").Replace(normalized)
	if t := EmployeeType(normalized); t.Known() {
		return t
	}
	return TypeUnknown
}
