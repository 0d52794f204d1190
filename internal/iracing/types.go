package iracing

import (
	"encoding/json"
	"fmt"
)

type License struct {
	// Category is the discipline of the license, ex. "road" or "dirt_oval".
	Category string `json:"category"`
	// IRating is 0 when the payload omits it.
	IRating      uint32  `json:"irating"`
	GroupName    string  `json:"group_name"`
	SafetyRating float32 `json:"safety_rating"`
}

// every field but irating is required
type licenseFields struct {
	Category     *string  `json:"category"`
	IRating      *uint32  `json:"irating"`
	GroupName    *string  `json:"group_name"`
	SafetyRating *float32 `json:"safety_rating"`
}

func (l *License) UnmarshalJSON(data []byte) error {
	var fields licenseFields
	err := json.Unmarshal(data, &fields)
	if err != nil {
		return err
	}
	switch {
	case fields.Category == nil:
		return missingField("category")
	case fields.GroupName == nil:
		return missingField("group_name")
	case fields.SafetyRating == nil:
		return missingField("safety_rating")
	}

	*l = License{
		Category:     *fields.Category,
		GroupName:    *fields.GroupName,
		SafetyRating: *fields.SafetyRating,
	}
	if fields.IRating != nil {
		l.IRating = *fields.IRating
	}
	return nil
}

type Member struct {
	CustId      uint32    `json:"cust_id"`
	DisplayName string    `json:"display_name"`
	Licenses    []License `json:"licenses"`
}

type memberFields struct {
	CustId      *uint32    `json:"cust_id"`
	DisplayName *string    `json:"display_name"`
	Licenses    *[]License `json:"licenses"`
}

func (m *Member) UnmarshalJSON(data []byte) error {
	var fields memberFields
	err := json.Unmarshal(data, &fields)
	if err != nil {
		return err
	}
	switch {
	case fields.CustId == nil:
		return missingField("cust_id")
	case fields.DisplayName == nil:
		return missingField("display_name")
	case fields.Licenses == nil || *fields.Licenses == nil:
		return missingField("licenses")
	}

	*m = Member{
		CustId:      *fields.CustId,
		DisplayName: *fields.DisplayName,
		Licenses:    *fields.Licenses,
	}
	return nil
}

func missingField(name string) error {
	return fmt.Errorf("missing field `%s`", name)
}

type membersPayload struct {
	Members []Member `json:"members"`
}

func (p membersPayload) validate() error {
	if p.Members == nil {
		return missingField("members")
	}
	return nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type linkResponse struct {
	Link string `json:"link"`
}
