package activity

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	id := uuid.New()
	testCases := []struct {
		name  string
		cause Cause
		want  CauseKind
	}{
		{"nil", nil, CauseNone},
		{"named", NamedCause{Name: "lava"}, CauseNamed},
		{"named pointer", &NamedCause{Name: "tnt"}, CauseNamed},
		{"player", PlayerCause{UUID: id, Name: "alice"}, CausePlayer},
		{"entity", EntityCause{Type: "creeper"}, CauseEntity},
		{"block", BlockCause{Namespace: "minecraft", Name: "dispenser"}, CauseBlock},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, KindOf(tc.cause))
		})
	}
}

func TestNormalize_DereferencesPointers(t *testing.T) {
	assert.Equal(t, NamedCause{Name: "tnt"}, Normalize(&NamedCause{Name: "tnt"}))
	assert.Equal(t, EntityCause{Type: "zombie"}, Normalize(&EntityCause{Type: "zombie"}))

	var nilNamed *NamedCause
	assert.Nil(t, Normalize(nilNamed))
	assert.Nil(t, Normalize(nil))
}

func TestCause_Label(t *testing.T) {
	assert.Equal(t, "lava", NamedCause{Name: "lava"}.Label())
	assert.Equal(t, "alice", PlayerCause{Name: "alice"}.Label())
	assert.Equal(t, "creeper", EntityCause{Type: "creeper"}.Label())
	assert.Equal(t, "piston", BlockCause{Name: "piston"}.Label())
}

func TestParseBlockName(t *testing.T) {
	ns, name := ParseBlockName("minecraft:stone")
	assert.Equal(t, "minecraft", ns)
	assert.Equal(t, "stone", name)

	ns, name = ParseBlockName("oak_log")
	assert.Equal(t, DefaultNamespace, ns)
	assert.Equal(t, "oak_log", name)

	assert.Equal(t, "minecraft:dirt", Block{Name: "dirt"}.QualifiedName())
}
