// Command devtoken prints a bearer token for local testing of the API.
//
//	devtoken -employee emp-worker -role employee
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/auth"
	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/platform/config"
)

func main() {
	employeeID := flag.String("employee", "", "employee id the token acts as")
	role := flag.String("role", auth.RoleEmployee, "role: employee, hr or admin")
	flag.Parse()

	cfg := config.Load()
	if *employeeID == "" {
		fmt.Fprintln(os.Stderr, "-employee is required")
		os.Exit(2)
	}
	if !auth.KnownRole(*role) {
		fmt.Fprintf(os.Stderr, "unknown role %q\n", *role)
		os.Exit(2)
	}
	if cfg.JWTSecret == "" {
		fmt.Fprintln(os.Stderr, "JWT_SECRET is not set")
		os.Exit(1)
	}

	token, err := auth.GenerateToken(cfg.JWTSecret, auth.Claims{EmployeeID: *employeeID, Role: *role}, cfg.TokenTTL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sign token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
