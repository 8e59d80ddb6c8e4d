package approval

import "fmt"

const (
	RoleDirectSuperior     = "direct_superior"
	RoleAdditionalApprover = "additional_approver"
)

// Link is one step of an approval chain.
type Link struct {
	Level      int    `json:"level"`
	ApproverID string `json:"approverId"`
	Role       string `json:"role"`
	Final      bool   `json:"final,omitempty"`
}

// Chain is ordered by strictly ascending level with distinct approvers.
type Chain []Link

func (c Chain) Len() int { return len(c) }

func (c Chain) Empty() bool { return len(c) == 0 }

func (c Chain) Link(level int) (Link, bool) {
	for _, l := range c {
		if l.Level == level {
			return l, true
		}
	}
	return Link{}, false
}

func (c Chain) Approvers() []string {
	out := make([]string, len(c))
	for i, l := range c {
		out[i] = l.ApproverID
	}
	return out
}

func (c Chain) Contains(approverID string) bool {
	for _, l := range c {
		if l.ApproverID == approverID {
			return true
		}
	}
	return false
}

// Validate checks the ordering and uniqueness guarantees of a chain read
// back from storage.
func (c Chain) Validate() error {
	seen := make(map[string]struct{}, len(c))
	prev := 0
	for _, l := range c {
		if l.Level <= prev || l.Level < 1 || l.Level > 6 {
			return fmt.Errorf("chain level %d out of order", l.Level)
		}
		if _, dup := seen[l.ApproverID]; dup {
			return fmt.Errorf("chain approver %s repeated", l.ApproverID)
		}
		seen[l.ApproverID] = struct{}{}
		prev = l.Level
	}
	return nil
}

func (c Chain) Clone() Chain {
	if c == nil {
		return nil
	}
	out := make(Chain, len(c))
	copy(out, c)
	return out
}
