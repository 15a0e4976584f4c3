package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/neuron/internal/domain"
)

// FormatMigration renders the legacy import record, or the pending notice,
// followed by how many demands the store holds now.
func FormatMigration(meta *domain.MigrationMetadata, stored int) string {
	storedLine := kv("Stored", fmt.Sprintf("%d demands", stored)) + "\n"
	if meta == nil {
		return StyleYellow.Render("Legacy store not migrated yet.") + "\n" +
			Dim("Run `neuron migrate run` to import it.") + "\n" + storedLine
	}
	var b strings.Builder
	b.WriteString(StyleGreen.Render("✔ Legacy store migrated") + "\n")
	b.WriteString(kv("When", meta.Timestamp.Local().Format(time.DateTime)) + "\n")
	b.WriteString(kv("Run", meta.RunID) + "\n")
	b.WriteString(kv("Version", meta.Version) + "\n")
	b.WriteString(kv("Imported", fmt.Sprintf("%d demands, %d completion marks",
		meta.DemandsMigrated, meta.CompletedMigrated)) + "\n")
	b.WriteString(storedLine)
	return b.String()
}
