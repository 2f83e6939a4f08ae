package game

import (
	"errors"
	"fmt"
)

// Worker assignment targets.
const (
	TargetUnion   = "union"
	TargetCompany = "company"
)

// ErrCompanyFull is returned when an assignment exceeds a company's slots.
var ErrCompanyFull = errors.New("company has no free worker slot")

// WorkerAssignment moves one worker.
type WorkerAssignment struct {
	WorkerID  int    `json:"workerId"`
	Target    string `json:"target"`
	CompanyID string `json:"companyId,omitempty"`
}

// AssignWorkers applies a batch of assignments.
//
// A worker leaving a company resets that company's crew: every other worker
// there that is not part of the batch is sent home uncommitted. A working
// class worker leaving a middle class company is exempt. The batch is
// checked in full before anything moves.
func (g *Game) AssignWorkers(assignments []WorkerAssignment) error {
	workers := make([]*Worker, len(assignments))
	handled := make(map[int]bool, len(assignments))
	reset := make(map[string]bool)
	incoming := make(map[string]int)

	for i, a := range assignments {
		w, err := g.WorkerByID(a.WorkerID)
		if err != nil {
			return err
		}
		if handled[w.ID] {
			return fmt.Errorf("worker %d assigned twice", w.ID)
		}
		handled[w.ID] = true
		workers[i] = w

		if w.CompanyID != "" {
			origin, err := g.CompanyByID(w.CompanyID)
			if err != nil {
				return err
			}
			if !(w.Role == RoleWorkingClass && origin.Owner == RoleMiddleClass) {
				reset[origin.ID] = true
			}
		}
		switch a.Target {
		case TargetUnion:
		case TargetCompany:
			if _, err := g.CompanyByID(a.CompanyID); err != nil {
				return err
			}
			incoming[a.CompanyID]++
		default:
			return fmt.Errorf("unknown assignment target %q", a.Target)
		}
	}

	for companyID, n := range incoming {
		company, _ := g.CompanyByID(companyID)
		def, err := g.CompanyDefinition(company.DefinitionID)
		if err != nil {
			return err
		}
		staying := 0
		if !reset[companyID] {
			for _, id := range company.Workers {
				if !handled[id] {
					staying++
				}
			}
		}
		if staying+n > def.Workers {
			return fmt.Errorf("%w: %s holds %d, %d requested", ErrCompanyFull, companyID, def.Workers, staying+n)
		}
	}

	for i, a := range assignments {
		w := workers[i]
		if w.CompanyID != "" {
			origin, _ := g.CompanyByID(w.CompanyID)
			origin.removeWorker(w.ID)
			w.CompanyID = ""
		}
		switch a.Target {
		case TargetUnion:
			w.Union = true
			w.Committed = false
		case TargetCompany:
			company, _ := g.CompanyByID(a.CompanyID)
			company.Workers = append(company.Workers, w.ID)
			w.CompanyID = company.ID
			w.Union = false
			w.Committed = true
		}
	}

	for companyID := range reset {
		company, _ := g.CompanyByID(companyID)
		kept := company.Workers[:0]
		for _, id := range company.Workers {
			if handled[id] {
				kept = append(kept, id)
				continue
			}
			if w, ok := g.WorkerByIDSafe(id); ok {
				w.CompanyID = ""
				w.Committed = false
			}
		}
		company.Workers = kept
	}
	return nil
}
