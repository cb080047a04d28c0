package accounts

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/cleared-dev/tally/internal/model"
)

var (
	ErrParentRequired    = errors.New("parent account must be selected")
	ErrParentNotFound    = errors.New("parent account not found")
	ErrNotParent         = errors.New("selected account is not a parent account")
	ErrSubRequired       = errors.New("sub account must be selected or named")
	ErrSubNotFound       = errors.New("sub account not found")
	ErrSubMismatch       = errors.New("sub account does not belong to the selected parent")
	ErrNameRequired      = errors.New("account name is required")
	ErrDuplicateName     = errors.New("account name already exists")
	ErrAccountNotFound   = errors.New("account not found")
	ErrImmutableIdentity = errors.New("account code and position cannot change")
)

// CreateRequest names a new real account and where it goes. The sub
// account is either an existing SubCode or a SubName to create inline.
type CreateRequest struct {
	ParentCode  string `json:"parentCode"`
	SubCode     string `json:"subCode,omitempty"`
	SubName     string `json:"subName,omitempty"`
	RealName    string `json:"realName"`
	Description string `json:"description,omitempty"`
}

// NewSub reports whether the request creates its sub account.
func (r CreateRequest) NewSub() bool {
	return r.SubCode == "" && strings.TrimSpace(r.SubName) != ""
}

// Validate checks r against the chart in order: parent, then sub, then
// the real account's name. The first failure is returned.
func (r CreateRequest) Validate(c *Chart) error {
	if strings.TrimSpace(r.ParentCode) == "" {
		return ErrParentRequired
	}
	parent, ok := c.Get(r.ParentCode)
	if !ok {
		return fmt.Errorf("%w: %s", ErrParentNotFound, r.ParentCode)
	}
	if parent.Level != model.LevelParent {
		return fmt.Errorf("%w: %s is %s", ErrNotParent, parent.Code, parent.Level)
	}

	switch {
	case r.SubCode != "":
		sub, ok := c.Get(r.SubCode)
		if !ok || sub.Level != model.LevelSub {
			return fmt.Errorf("%w: %s", ErrSubNotFound, r.SubCode)
		}
		if sub.ParentCode != parent.Code {
			return fmt.Errorf("%w: %s is under %s", ErrSubMismatch, sub.Code, sub.ParentCode)
		}
	case strings.TrimSpace(r.SubName) != "":
		if c.nameTaken(parent.Code, model.LevelSub, strings.TrimSpace(r.SubName), "") {
			return fmt.Errorf("%w: sub %q", ErrDuplicateName, strings.TrimSpace(r.SubName))
		}
	default:
		return ErrSubRequired
	}

	name := strings.TrimSpace(r.RealName)
	if name == "" {
		return ErrNameRequired
	}
	if r.SubCode != "" && c.nameTaken(r.SubCode, model.LevelReal, name, "") {
		return fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}
	return nil
}

// Apply validates r, assigns codes and inserts the new accounts. It returns
// the created accounts: the inline sub first when one was named, then the
// real account. The chart is unchanged on error.
func (c *Chart) Apply(r CreateRequest) ([]model.Account, error) {
	if err := r.Validate(c); err != nil {
		return nil, err
	}

	var created []model.Account
	subCode := r.SubCode
	if r.NewSub() {
		code, err := c.NextCode(model.LevelSub, r.ParentCode)
		if err != nil {
			return nil, err
		}
		created = append(created, model.Account{
			Code:       code,
			Name:       strings.TrimSpace(r.SubName),
			Level:      model.LevelSub,
			ParentCode: r.ParentCode,
		})
		subCode = code
	}

	var realCode string
	if r.NewSub() {
		code, err := nextChildCode(subCode)
		if err != nil {
			return nil, err
		}
		realCode = code
	} else {
		code, err := c.NextCode(model.LevelReal, subCode)
		if err != nil {
			return nil, err
		}
		realCode = code
	}
	created = append(created, model.Account{
		Code:        realCode,
		Name:        strings.TrimSpace(r.RealName),
		Level:       model.LevelReal,
		ParentCode:  subCode,
		Description: strings.TrimSpace(r.Description),
	})

	n := len(c.accounts)
	for _, a := range created {
		if err := c.Insert(a); err != nil {
			c.truncate(n)
			return nil, err
		}
	}
	return created, nil
}

// truncate drops every account appended after the first n.
func (c *Chart) truncate(n int) {
	for _, a := range c.accounts[n:] {
		delete(c.byCode, a.Code)
	}
	c.accounts = c.accounts[:n]
}

// nextChildCode is the first real-account code under a sub with no
// children yet.
func nextChildCode(subCode string) (string, error) {
	n, err := strconv.Atoi(subCode)
	if err != nil {
		return "", fmt.Errorf("sub code %q is not numeric: %w", subCode, err)
	}
	return strconv.Itoa(n + codeStep[model.LevelReal]), nil
}
