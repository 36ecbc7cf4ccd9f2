package command

import (
	"fmt"
	"strings"
	"time"

	"github.com/ariebrainware/measurement-gateway/model"
	"github.com/ariebrainware/measurement-gateway/util"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage user accounts",
}

type createUserParams struct {
	Name        string
	Email       string
	Password    string
	DateOfBirth string
	Gender      string
	Role        string
}

var newUser createUserParams

var usersCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a user account",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		user, err := createUser(a.db, newUser)
		if err != nil {
			return err
		}
		a.log.Infow("user created", "id", user.ID, "email", user.Email, "role_id", user.RoleID)
		return nil
	},
}

func init() {
	f := usersCreateCmd.Flags()
	f.StringVar(&newUser.Name, "name", "", "Full name")
	f.StringVar(&newUser.Email, "email", "", "E-mail address (login)")
	f.StringVar(&newUser.Password, "password", "", "Password")
	f.StringVar(&newUser.DateOfBirth, "dob", "", "Date of birth, YYYY-MM-DD")
	f.StringVar(&newUser.Gender, "gender", "", "M or F")
	f.StringVar(&newUser.Role, "role", "patient", "patient, doctor or admin")
	_ = usersCreateCmd.MarkFlagRequired("email")
	_ = usersCreateCmd.MarkFlagRequired("password")

	usersCmd.AddCommand(usersCreateCmd)
	rootCmd.AddCommand(usersCmd)
}

func roleByName(name string) (uint32, error) {
	switch strings.ToLower(name) {
	case "patient", "paziente":
		return model.RolePatient, nil
	case "doctor", "medico":
		return model.RoleDoctor, nil
	case "admin":
		return model.RoleAdmin, nil
	}
	return 0, fmt.Errorf("unknown role %q", name)
}

func createUser(db *gorm.DB, p createUserParams) (model.User, error) {
	roleID, err := roleByName(p.Role)
	if err != nil {
		return model.User{}, err
	}

	gender := strings.ToUpper(p.Gender)
	if gender != "" && gender != "M" && gender != "F" {
		return model.User{}, fmt.Errorf("gender must be M or F, got %q", p.Gender)
	}

	var dob time.Time
	if p.DateOfBirth != "" {
		dob, err = time.Parse("2006-01-02", p.DateOfBirth)
		if err != nil {
			return model.User{}, fmt.Errorf("invalid date of birth: %w", err)
		}
	}

	hashed, err := util.HashPassword(p.Password)
	if err != nil {
		return model.User{}, fmt.Errorf("hash password: %w", err)
	}

	user := model.User{
		Name:        p.Name,
		Email:       strings.ToLower(strings.TrimSpace(p.Email)),
		Password:    hashed,
		DateOfBirth: dob,
		Gender:      gender,
		RoleID:      roleID,
	}
	if err := db.Create(&user).Error; err != nil {
		return model.User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}
