package facebook

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strings"
)

type Credentials struct {
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
}

func (c Credentials) String() string {
	return fmt.Sprintf("%s:<redacted>", c.Username)
}

func (c Credentials) Empty() bool {
	return c.Username == "" && c.Password == ""
}

// LoadCredentials reads a file whose first line is the username and whose
// second line is the password.
func LoadCredentials(path string) (Credentials, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return Credentials{}, err
	}

	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(contents))
	for scanner.Scan() && len(lines) < 2 {
		lines = append(lines, strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return Credentials{}, err
	}
	if len(lines) < 2 || strings.TrimSpace(lines[0]) == "" {
		return Credentials{}, fmt.Errorf("credentials file %s: expected a username line and a password line", path)
	}

	return Credentials{
		Username: strings.TrimSpace(lines[0]),
		Password: lines[1],
	}, nil
}

// Save writes the credentials in the format read by LoadCredentials.
func (c Credentials) Save(path string) error {
	return os.WriteFile(path, []byte(fmt.Sprintf("%s\n%s\n", c.Username, c.Password)), 0600)
}
