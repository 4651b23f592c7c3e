package main

import (
	"flag"
	"fmt"
	"os"

	"sitecrew.com.au/sitecrew/security"
)

func main() {
	employeeID := flag.Int("employee", 100, "employee id")
	companyID := flag.Int("company", 1, "company id")
	role := flag.String("role", "worker", "role (worker|manager|admin)")
	device := flag.String("device", "dev-device", "device id")
	email := flag.String("email", "", "employee email")
	expires := flag.Int64("expires", 8*3600, "expiry in seconds")
	flag.Parse()

	secret := os.Getenv("SITECREW_SIGNING_SECRET")
	if secret == "" {
		fmt.Fprintln(os.Stderr, "SITECREW_SIGNING_SECRET is not set")
		os.Exit(1)
	}

	token, err := security.CreateIdentityToken(&security.Identity{
		ID:        int32(*employeeID),
		CompanyID: int32(*companyID),
		Role:      *role,
		Email:     *email,
		DeviceID:  *device,
	}, secret, *expires)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(token)
}
