package opportunity

import (
	"context"
	"crypto/md5"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"lead-tracker-go/internal/model"
)

// FolderProvisioner creates the external storage folder for a new lead and
// returns its link.
type FolderProvisioner interface {
	CreateFolder(ctx context.Context, name string) (string, error)
}

// NotesProvider produces the notes text to attach to an opportunity, or an
// empty string when there is nothing to attach.
type NotesProvider interface {
	MaybeSummarize(ctx context.Context, opportunityID string) string
}

// Resolver maps a batch of classified lead messages to opportunity records.
// Resolution is batch-scoped: persistence is the report synchronizer's job.
type Resolver struct {
	folders FolderProvisioner
	notes   NotesProvider
	log     *logrus.Logger
}

// NewResolver creates an opportunity resolver.
func NewResolver(folders FolderProvisioner, notes NotesProvider, log *logrus.Logger) *Resolver {
	return &Resolver{
		folders: folders,
		notes:   notes,
		log:     log,
	}
}

// Resolve groups lead messages by opportunity identity and returns one record
// per identity, reflecting the most recently received message of each group.
// Recency is decided by string comparison of the received timestamps, which
// the fetchers guarantee are uniformly formatted RFC3339, so lexicographic
// order is chronological order.
//
// The external folder is provisioned exactly once, on first sight of an
// identity within the batch; later messages for the same identity reuse the
// link already assigned.
func (r *Resolver) Resolve(ctx context.Context, leads []model.ClassifiedEmail) map[string]model.Opportunity {
	opportunities := make(map[string]model.Opportunity)

	for _, lead := range leads {
		id := ID(lead.Email.SenderEmail)

		existing, seen := opportunities[id]
		if seen && lead.Email.Received <= existing.LastContacted {
			continue
		}

		folderLink := existing.FolderLink
		if !seen {
			link, err := r.folders.CreateFolder(ctx, "Lead-"+id)
			if err != nil {
				r.log.Errorf("Failed to create folder for opportunity %s: %v", id, err)
			} else {
				r.log.Infof("Created folder for opportunity %s", id)
				folderLink = link
			}
		}

		status := "New Lead"
		if lead.Result != nil && lead.Result.LeadStatus != "" {
			status = lead.Result.LeadStatus
		}

		opportunities[id] = model.Opportunity{
			ID:            id,
			ContactName:   lead.Email.SenderName,
			Company:       Company(lead.Email.SenderEmail),
			Email:         lead.Email.SenderEmail,
			Phone:         "",
			Title:         fmt.Sprintf("Opportunity with %s", lead.Email.SenderName),
			LeadStatus:    status,
			Notes:         r.notes.MaybeSummarize(ctx, id),
			LastContacted: lead.Email.Received,
			FolderLink:    folderLink,
		}
	}

	return opportunities
}

// ID derives the stable opportunity identifier from a sender address: the
// first 8 hex characters of the md5 of the lowercased address. The short
// token keeps report rows readable; the collision risk that comes with
// truncation is accepted, not mitigated.
func ID(senderEmail string) string {
	sum := md5.Sum([]byte(strings.ToLower(senderEmail)))
	return fmt.Sprintf("%x", sum)[:8]
}

// Company derives a display company name from the sender address domain:
// the first label of the domain, title-cased.
func Company(senderEmail string) string {
	_, domain, ok := strings.Cut(senderEmail, "@")
	if !ok {
		return ""
	}
	label, _, _ := strings.Cut(domain, ".")
	if label == "" {
		return ""
	}
	return strings.ToUpper(label[:1]) + strings.ToLower(label[1:])
}
