package validator

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

type ValidationErrors map[string]string

func (v ValidationErrors) HasErrors() bool {
	return len(v) > 0
}

// Add records message for field unless the field already has an error.
func (v ValidationErrors) Add(field, message string) {
	if _, ok := v[field]; ok {
		return
	}
	v[field] = message
}

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

const (
	maxEmail       = 255
	maxName        = 255
	maxBio         = 1000
	maxGroupName   = 255
	maxDescription = 255
	maxTitle       = 255
	maxPostText    = 50000
	maxCommentText = 20000
)

func ValidateRegister(email, username, name, password string) ValidationErrors {
	errs := make(ValidationErrors)

	email = strings.TrimSpace(email)
	if email == "" {
		errs.Add("email", "Email required")
	} else if length(email) > maxEmail {
		errs.Add("email", "Email is too long")
	} else if _, err := mail.ParseAddress(email); err != nil {
		errs.Add("email", "Invalid email")
	}

	username = strings.TrimSpace(username)
	if username == "" {
		errs.Add("username", "Username required")
	} else if length(username) < 3 {
		errs.Add("username", "Username must be at least 3 characters")
	} else if length(username) > 20 {
		errs.Add("username", "Username cannot be longer than 20 characters")
	} else if !usernameRegex.MatchString(username) {
		errs.Add("username", "Username can only contain letters, numbers, _ and -")
	}

	requiredText(errs, "name", "Name", name, maxName)
	validatePassword(password, errs)

	return errs
}

func ValidateLogin(username, password string) ValidationErrors {
	errs := make(ValidationErrors)

	if strings.TrimSpace(username) == "" {
		errs.Add("username", "Username required")
	}
	if password == "" {
		errs.Add("password", "Password required")
	}

	return errs
}

// ValidateProfile checks a partial profile update; nil fields are unchanged.
func ValidateProfile(name, bio *string) ValidationErrors {
	errs := make(ValidationErrors)

	if name != nil {
		requiredText(errs, "name", "Name", *name, maxName)
	}
	if bio != nil && length(*bio) > maxBio {
		errs.Add("bio", fmt.Sprintf("Bio cannot be longer than %d characters", maxBio))
	}

	return errs
}

func ValidateGroup(name, description string) ValidationErrors {
	errs := make(ValidationErrors)
	requiredText(errs, "name", "Group name", name, maxGroupName)
	requiredText(errs, "description", "Description", description, maxDescription)
	return errs
}

func ValidatePost(title, text string) ValidationErrors {
	errs := make(ValidationErrors)
	requiredText(errs, "title", "Title", title, maxTitle)
	requiredText(errs, "text", "Text", text, maxPostText)
	return errs
}

func ValidateComment(text string) ValidationErrors {
	errs := make(ValidationErrors)
	requiredText(errs, "text", "Text", text, maxCommentText)
	return errs
}

func requiredText(errs ValidationErrors, field, label, value string, max int) {
	value = strings.TrimSpace(value)
	switch {
	case value == "":
		errs.Add(field, label+" required")
	case length(value) > max:
		errs.Add(field, fmt.Sprintf("%s cannot be longer than %d characters", label, max))
	}
}

func length(s string) int {
	return utf8.RuneCountInString(s)
}

func validatePassword(password string, errs ValidationErrors) {
	if password == "" {
		errs.Add("password", "Password required")
		return
	}
	if len(password) < 8 {
		errs.Add("password", "Password must be at least 8 characters")
		return
	}

	var hasUpper, hasLower, hasDigit bool
	for _, ch := range password {
		switch {
		case unicode.IsUpper(ch):
			hasUpper = true
		case unicode.IsLower(ch):
			hasLower = true
		case unicode.IsDigit(ch):
			hasDigit = true
		}
	}

	missing := []string{}
	if !hasUpper {
		missing = append(missing, "one uppercase letter")
	}
	if !hasLower {
		missing = append(missing, "one lowercase letter")
	}
	if !hasDigit {
		missing = append(missing, "one number")
	}

	if len(missing) > 0 {
		errs.Add("password", fmt.Sprintf("Password must contain at least %s", strings.Join(missing, ", ")))
	}
}
