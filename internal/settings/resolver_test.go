package settings

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lojf/classbook/internal/apperr"
	"github.com/lojf/classbook/internal/events"
	"github.com/lojf/classbook/internal/models"
	"github.com/lojf/classbook/internal/store"
)

func newResolver(t *testing.T) (*Resolver, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "classbook.db"), 5*time.Second, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	r := NewResolver(st, events.NewBus(), zerolog.Nop())
	require.NoError(t, r.Seed(context.Background()))
	return r, st
}

func TestFactorySnapshotDecodes(t *testing.T) {
	f, err := LoadFactory()
	require.NoError(t, err)
	assert.Equal(t, "light", f.Global["theme"])
	assert.Equal(t, "20", f.Class["max_classes"])
	assert.Len(t, f.Visibility(), len(models.VisibilityColumns))

	rows := f.Rows()
	require.NotEmpty(t, rows)
	for _, row := range rows {
		if row.Scope == models.ScopeForm {
			require.NotNil(t, row.FormName)
		} else {
			assert.Nil(t, row.FormName)
		}
	}
}

func TestSeedIsIdempotent(t *testing.T) {
	r, st := newResolver(t)
	ctx := context.Background()
	before, err := st.FactoryDefaults(ctx)
	require.NoError(t, err)
	require.NoError(t, r.Seed(ctx))
	after, err := st.FactoryDefaults(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(before), len(after))
}

func TestResolvePrecedence(t *testing.T) {
	r, _ := newResolver(t)
	ctx := context.Background()

	// factory form value
	v, err := r.Get(ctx, "attendance", "column_width", "x")
	require.NoError(t, err)
	assert.Equal(t, "80", v)

	// global default beats factory form value
	require.NoError(t, r.SetDefault(ctx, "column_width", "90"))
	v, err = r.Get(ctx, "attendance", "column_width", "x")
	require.NoError(t, err)
	assert.Equal(t, "90", v)

	// form setting beats everything
	require.NoError(t, r.SetFormSetting(ctx, "attendance", "column_width", "120"))
	v, err = r.Get(ctx, "attendance", "column_width", "x")
	require.NoError(t, err)
	assert.Equal(t, "120", v)

	// other forms only see the global default
	v, err = r.Get(ctx, "summary", "column_width", "x")
	require.NoError(t, err)
	assert.Equal(t, "90", v)
}

func TestResolveFallbacks(t *testing.T) {
	r, _ := newResolver(t)
	ctx := context.Background()

	v, err := r.Get(ctx, "", "theme", "dark")
	require.NoError(t, err)
	assert.Equal(t, "light", v)

	_, ok, err := r.Resolve(ctx, "attendance", "no_such_key")
	require.NoError(t, err)
	assert.False(t, ok)

	v, err = r.Get(ctx, "attendance", "no_such_key", "fallback")
	require.NoError(t, err)
	assert.Equal(t, "fallback", v)

	n, err := r.Int(ctx, "summary", "months_back", 3)
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	b, err := r.Bool(ctx, "launcher", "show_archived", true)
	require.NoError(t, err)
	assert.False(t, b)
}

func TestSetRejectsEmptyKeys(t *testing.T) {
	r, _ := newResolver(t)
	ctx := context.Background()
	assert.Equal(t, apperr.Validation, apperr.KindOf(r.SetDefault(ctx, " ", "v")))
	assert.Equal(t, apperr.Validation, apperr.KindOf(r.SetFormSetting(ctx, "", "k", "v")))
	assert.Equal(t, apperr.Validation, apperr.KindOf(r.SetTeacherDefault(ctx, "not_a_column", "v")))
}

func TestClassTemplateAndPrefill(t *testing.T) {
	r, _ := newResolver(t)
	ctx := context.Background()
	require.NoError(t, r.SetTeacherDefault(ctx, "rate", "500"))
	require.NoError(t, r.SetTeacherDefault(ctx, "days", "Tuesday,Thursday"))

	tpl, err := r.ClassTemplate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 500, tpl.Rate)
	assert.Equal(t, 20, tpl.MaxClasses)
	assert.Equal(t, "Tuesday,Thursday", tpl.Days)
	assert.Equal(t, models.Yes, tpl.ShowP)

	c, err := r.Prefill(ctx, models.Class{ClassNo: "C1", Rate: 700})
	require.NoError(t, err)
	assert.Equal(t, "C1", c.ClassNo)
	assert.Equal(t, 700, c.Rate)
	assert.Equal(t, 2, c.ClassTime)
	assert.Equal(t, models.No, c.Archive)
}

func TestResetRestoresFactory(t *testing.T) {
	r, st := newResolver(t)
	ctx := context.Background()
	require.NoError(t, st.InsertClass(ctx, models.Class{ClassNo: "C1", MaxClasses: 5, ShowP: models.No}))
	require.NoError(t, r.SetDefault(ctx, "theme", "dark"))
	require.NoError(t, r.SetFormSetting(ctx, "attendance", "column_width", "200"))
	require.NoError(t, r.SetDefault(ctx, "custom", "1"))

	require.NoError(t, r.Reset(ctx))

	defs, err := st.Defaults(ctx)
	require.NoError(t, err)
	assert.Equal(t, "light", defs["theme"])
	assert.NotContains(t, defs, "custom")

	v, _, err := st.FormSetting(ctx, "attendance", "column_width")
	require.NoError(t, err)
	assert.Equal(t, "80", v)

	c, err := st.Class(ctx, "C1")
	require.NoError(t, err)
	assert.Equal(t, models.Yes, c.ShowP)
	assert.Equal(t, 5, c.MaxClasses)
}

func TestHolidays(t *testing.T) {
	r, _ := newResolver(t)
	ctx := context.Background()

	assert.Equal(t, apperr.Validation, apperr.KindOf(r.SetHoliday(ctx, models.Holiday{Date: "2025-05-01"})))
	assert.Equal(t, apperr.Validation, apperr.KindOf(r.SetHoliday(ctx, models.Holiday{Date: "01/05/2025 "})))
	require.NoError(t, r.SetHoliday(ctx, models.Holiday{Date: "25/12/2025", Name: "Christmas"}))
	require.NoError(t, r.SetHoliday(ctx, models.Holiday{Date: "01/05/2025", Name: "Labour"}))
	require.NoError(t, r.SetHoliday(ctx, models.Holiday{Date: "01/05/2025", Name: "Labour Day"}))

	hs, err := r.Holidays(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.Holiday{
		{Date: "01/05/2025", Name: "Labour Day"},
		{Date: "25/12/2025", Name: "Christmas"},
	}, hs)

	require.NoError(t, r.DeleteHoliday(ctx, "25/12/2025"))
	hs, err = r.Holidays(ctx)
	require.NoError(t, err)
	assert.Len(t, hs, 1)
}
