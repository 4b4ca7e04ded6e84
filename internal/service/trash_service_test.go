package service

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"clientvault/internal/model"
)

func TestTrashRoundTrip(t *testing.T) {
	t.Parallel()

	ws := newTestWorkspace(t, "Jane Doe")
	trash := NewTrashService()
	admin := AdminPrincipal()
	actor := model.AuditActor{UserID: "u1", Email: "admin@localhost", Role: model.RoleAdmin}

	require.NoError(t, ws.WriteFile("02 Compliance/03 VAT/invoice.pdf", []byte("pdf-bytes")))

	record, err := trash.Trash(ws, admin, "02 Compliance/03 VAT", "invoice.pdf", actor)
	require.NoError(t, err)
	require.Equal(t, "invoice.pdf", record.TrashName)
	require.Equal(t, "02 Compliance/03 VAT", record.OriginalDir)
	require.Equal(t, model.KindFile, record.Kind)

	requireAbsent(t, ws, "02 Compliance/03 VAT/invoice.pdf")
	requireLiveFile := func(rel string, want string) {
		file, openErr := ws.OpenForRead(rel)
		require.NoError(t, openErr)
		defer file.Close()
		content, readErr := io.ReadAll(file)
		require.NoError(t, readErr)
		require.Equal(t, want, string(content))
	}
	requireLiveFile("99 Archive/Trash/invoice.pdf", "pdf-bytes")

	// Restore must survive the original directory disappearing.
	require.NoError(t, ws.RemoveAll("02 Compliance/03 VAT"))

	restored, err := trash.Restore(ws, admin, "invoice.pdf")
	require.NoError(t, err)
	require.Equal(t, "invoice.pdf", restored.OriginalName)
	requireLiveFile("02 Compliance/03 VAT/invoice.pdf", "pdf-bytes")
	requireAbsent(t, ws, "99 Archive/Trash/invoice.pdf")
}

func TestTrashNameCollision(t *testing.T) {
	t.Parallel()

	ws := newTestWorkspace(t, "Jane Doe")
	trash := NewTrashService()
	admin := AdminPrincipal()
	actor := model.AuditActor{Role: model.RoleAdmin}

	require.NoError(t, ws.WriteFile("a/note.txt", []byte("first")))
	require.NoError(t, ws.WriteFile("b/note.txt", []byte("second")))

	first, err := trash.Trash(ws, admin, "a", "note.txt", actor)
	require.NoError(t, err)
	require.Equal(t, "note.txt", first.TrashName)

	second, err := trash.Trash(ws, admin, "b", "note.txt", actor)
	require.NoError(t, err)
	require.NotEqual(t, first.TrashName, second.TrashName)
	require.Contains(t, second.TrashName, "note.txt.")

	// Both restore to their distinct original directories.
	_, err = trash.Restore(ws, admin, first.TrashName)
	require.NoError(t, err)
	_, err = trash.Restore(ws, admin, second.TrashName)
	require.NoError(t, err)

	fileA, err := ws.OpenForRead("a/note.txt")
	require.NoError(t, err)
	defer fileA.Close()
	contentA, err := io.ReadAll(fileA)
	require.NoError(t, err)
	require.Equal(t, "first", string(contentA))

	fileB, err := ws.OpenForRead("b/note.txt")
	require.NoError(t, err)
	defer fileB.Close()
	contentB, err := io.ReadAll(fileB)
	require.NoError(t, err)
	require.Equal(t, "second", string(contentB))
}

func TestTrashDirectoryWhole(t *testing.T) {
	t.Parallel()

	ws := newTestWorkspace(t, "Jane Doe")
	trash := NewTrashService()
	admin := AdminPrincipal()

	require.NoError(t, ws.WriteFile("docs/2024/receipt.png", []byte("img")))

	record, err := trash.Trash(ws, admin, "docs", "2024", model.AuditActor{})
	require.NoError(t, err)
	require.Equal(t, model.KindDirectory, record.Kind)
	requireDir(t, ws, "99 Archive/Trash/2024")

	info, err := ws.Stat("99 Archive/Trash/2024/receipt.png")
	require.NoError(t, err)
	require.Equal(t, int64(3), info.Size())
}

func TestTrashRejectsTrashContents(t *testing.T) {
	t.Parallel()

	ws := newTestWorkspace(t, "Jane Doe")
	trash := NewTrashService()
	admin := AdminPrincipal()

	require.NoError(t, ws.WriteFile("99 Archive/Trash/stuck.txt", []byte("x")))

	_, err := trash.Trash(ws, admin, "99 Archive/Trash", "stuck.txt", model.AuditActor{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "BAD_REQUEST")
}

func TestTrashRestoreConflict(t *testing.T) {
	t.Parallel()

	ws := newTestWorkspace(t, "Jane Doe")
	trash := NewTrashService()
	admin := AdminPrincipal()

	require.NoError(t, ws.WriteFile("docs/plan.txt", []byte("old")))
	record, err := trash.Trash(ws, admin, "docs", "plan.txt", model.AuditActor{})
	require.NoError(t, err)

	// Something new now occupies the original location.
	require.NoError(t, ws.WriteFile("docs/plan.txt", []byte("new")))

	_, err = trash.Restore(ws, admin, record.TrashName)
	require.Error(t, err)
	require.Contains(t, err.Error(), "CONFLICT")

	// The trashed copy stays put.
	info, err := ws.Stat("99 Archive/Trash/" + record.TrashName)
	require.NoError(t, err)
	require.False(t, info.IsDir())
}

func TestTrashManifestSurvivesRestart(t *testing.T) {
	t.Parallel()

	ws := newTestWorkspace(t, "Jane Doe")
	admin := AdminPrincipal()

	record, err := NewTrashService().Trash(ws, admin, "02 Compliance/03 VAT", "q1.csv", model.AuditActor{})
	require.Errorf(t, err, "entry does not exist yet")

	require.NoError(t, ws.WriteFile("02 Compliance/03 VAT/q1.csv", []byte("1,2")))
	record, err = NewTrashService().Trash(ws, admin, "02 Compliance/03 VAT", "q1.csv", model.AuditActor{})
	require.NoError(t, err)

	// A fresh service instance reads the same manifest from disk.
	restored, err := NewTrashService().Restore(ws, admin, record.TrashName)
	require.NoError(t, err)
	require.Equal(t, "02 Compliance/03 VAT", restored.OriginalDir)

	_, err = ws.Stat("02 Compliance/03 VAT/q1.csv")
	require.NoError(t, err)
}

func TestTrashList(t *testing.T) {
	t.Parallel()

	ws := newTestWorkspace(t, "Jane Doe")
	trash := NewTrashService()
	admin := AdminPrincipal()

	t.Run("empty trash lists empty", func(t *testing.T) {
		listing, err := trash.ListTrash(ws, admin, "")
		require.NoError(t, err)
		require.Empty(t, listing.Entries)
	})

	require.NoError(t, ws.WriteFile("docs/a.txt", []byte("a")))
	_, err := trash.Trash(ws, admin, "docs", "a.txt", model.AuditActor{})
	require.NoError(t, err)

	t.Run("manifest sidecar is hidden and records attached", func(t *testing.T) {
		listing, listErr := trash.ListTrash(ws, admin, "")
		require.NoError(t, listErr)
		require.Len(t, listing.Entries, 1)
		require.Equal(t, "a.txt", listing.Entries[0].Name)
		require.Contains(t, listing.Records, "a.txt")
		require.Equal(t, "docs", listing.Records["a.txt"].OriginalDir)
	})

	t.Run("missing subpath is not found", func(t *testing.T) {
		_, listErr := trash.ListTrash(ws, admin, "nope")
		require.Error(t, listErr)
		require.Contains(t, listErr.Error(), "NOT_FOUND")
	})
}

func TestTrashPurgeAndEmpty(t *testing.T) {
	t.Parallel()

	ws := newTestWorkspace(t, "Jane Doe")
	trash := NewTrashService()
	admin := AdminPrincipal()

	require.NoError(t, ws.WriteFile("docs/a.txt", []byte("a")))
	require.NoError(t, ws.WriteFile("docs/b.txt", []byte("b")))
	_, err := trash.Trash(ws, admin, "docs", "a.txt", model.AuditActor{})
	require.NoError(t, err)
	_, err = trash.Trash(ws, admin, "docs", "b.txt", model.AuditActor{})
	require.NoError(t, err)

	t.Run("purge is irreversible", func(t *testing.T) {
		require.NoError(t, trash.PurgeOne(ws, admin, "", "a.txt"))
		requireAbsent(t, ws, "99 Archive/Trash/a.txt")

		_, restoreErr := trash.Restore(ws, admin, "a.txt")
		require.Error(t, restoreErr)
		require.Contains(t, restoreErr.Error(), "NOT_FOUND")
	})

	t.Run("purging a missing entry is not found", func(t *testing.T) {
		err := trash.PurgeOne(ws, admin, "", "a.txt")
		require.Error(t, err)
		require.Contains(t, err.Error(), "NOT_FOUND")
	})

	t.Run("empty trash removes the rest and reports the count", func(t *testing.T) {
		count, emptyErr := trash.EmptyTrash(ws, admin, "")
		require.NoError(t, emptyErr)
		require.Equal(t, 1, count)

		listing, listErr := trash.ListTrash(ws, admin, "")
		require.NoError(t, listErr)
		require.Empty(t, listing.Entries)
		require.Empty(t, listing.Records)
	})
}

func TestTrashPathsCannotEscapeTrashRoot(t *testing.T) {
	t.Parallel()

	ws := newTestWorkspace(t, "Jane Doe")
	trash := NewTrashService()
	archiveOnly := Principal{
		Role:   model.RoleClient,
		Client: "Jane Doe",
		Capability: &model.Capability{
			AllowedRootFolders: []string{"99 Archive"},
			PerFolderPermissions: map[string]model.FolderPermissions{
				"99 Archive": {Delete: true},
			},
		},
	}

	require.NoError(t, ws.WriteFile("secret.txt", []byte("root-only")))
	require.NoError(t, ws.MkdirAll("00 Proof of ID", 0o755))
	require.NoError(t, ws.MkdirAll("99 Archive/Trash", 0o755))

	t.Run("list", func(t *testing.T) {
		for _, escape := range []string{"../..", "..", "a/../../.."} {
			_, err := trash.ListTrash(ws, archiveOnly, escape)
			require.Error(t, err, "path %q", escape)
			require.Contains(t, err.Error(), "PATH_TRAVERSAL")
		}
	})

	t.Run("purge one", func(t *testing.T) {
		err := trash.PurgeOne(ws, archiveOnly, "../..", "secret.txt")
		require.Error(t, err)
		require.Contains(t, err.Error(), "PATH_TRAVERSAL")
		requireDir(t, ws, "00 Proof of ID")
		_, statErr := ws.Stat("secret.txt")
		require.NoError(t, statErr)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := trash.EmptyTrash(ws, archiveOnly, "../..")
		require.Error(t, err)
		require.Contains(t, err.Error(), "PATH_TRAVERSAL")
		requireDir(t, ws, "00 Proof of ID")
		_, statErr := ws.Stat("secret.txt")
		require.NoError(t, statErr)
	})
}

func TestTrashRejectsArchiveContainer(t *testing.T) {
	t.Parallel()

	ws := newTestWorkspace(t, "Jane Doe")
	trash := NewTrashService()
	admin := AdminPrincipal()
	actor := model.AuditActor{Role: model.RoleAdmin}

	require.NoError(t, ws.MkdirAll("99 Archive/Trash", 0o755))

	_, err := trash.Trash(ws, admin, "", "99 Archive", actor)
	require.Error(t, err)
	require.Contains(t, err.Error(), "BAD_REQUEST")
	requireDir(t, ws, "99 Archive/Trash")
}
