package domain

import "fmt"

type ProfileType string

const (
	ProfileTypeGemini ProfileType = "gemini"
	ProfileTypeAWS    ProfileType = "aws"
)

// CredentialProfile is one named section of the credentials file.
type CredentialProfile struct {
	Name string
	Type ProfileType
}

func (c CredentialProfile) String() string {
	return fmt.Sprintf("%s:%s", c.Type, c.Name)
}
