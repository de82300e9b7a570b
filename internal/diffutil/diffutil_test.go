package diffutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/argus-review/argus/internal/ids"
)

func TestChangedFiles_Empty(t *testing.T) {
	files, err := ChangedFiles("")
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestChangedFiles_ModifiedAndAdded(t *testing.T) {
	diff := `diff --git a/internal/foo/bar.go b/internal/foo/bar.go
index 1111111..2222222 100644
--- a/internal/foo/bar.go
+++ b/internal/foo/bar.go
@@ -1,3 +1,4 @@
 package foo
+// added line
diff --git a/internal/foo/new.go b/internal/foo/new.go
new file mode 100644
index 0000000..3333333
--- /dev/null
+++ b/internal/foo/new.go
@@ -0,0 +1,1 @@
+package foo
`
	files, err := ChangedFiles(diff)
	require.NoError(t, err)
	assert.Equal(t, []ids.FilePath{
		ids.NewFilePath("internal/foo/bar.go"),
		ids.NewFilePath("internal/foo/new.go"),
	}, files)
}

func TestChangedFiles_Deleted(t *testing.T) {
	diff := `diff --git a/internal/foo/old.go b/internal/foo/old.go
deleted file mode 100644
index 1111111..0000000
--- a/internal/foo/old.go
+++ /dev/null
@@ -1,1 +0,0 @@
-package foo
`
	files, err := ChangedFiles(diff)
	require.NoError(t, err)
	assert.Equal(t, []ids.FilePath{ids.NewFilePath("internal/foo/old.go")}, files)
}
