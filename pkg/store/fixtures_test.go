package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chrisrossi/dumpling/pkg/atomicfs"
	"github.com/chrisrossi/dumpling/pkg/metrics"
	"github.com/chrisrossi/dumpling/pkg/model"
	"github.com/chrisrossi/dumpling/pkg/store"
	"github.com/chrisrossi/dumpling/pkg/txn"
)

var (
	siteTitleField = &model.FieldSpec{Name: "title"}

	sprocketSizeField = &model.FieldSpec{Name: "size", Default: int64(5)}
	sprocketSpinField = &model.FieldSpec{Name: "spin", Default: int64(0)}

	widgetSprocketField = &model.FieldSpec{Name: "sprocket", Nullable: true}
	widgetChicletsField = &model.FieldSpec{Name: "chiclets", Coerce: model.CoerceList[int64]()}
)

type Site struct{ model.Base }

func init() {
	model.Register(&model.Schema{
		Tag:    "test.site",
		Fields: []*model.FieldSpec{siteTitleField},
		New:    func() model.Object { return &Site{} },
	}, &Site{})
}

func (s *Site) Title() string {
	v, _ := model.Get[string](s, siteTitleField)
	return v
}

func (s *Site) SetTitle(v string) error { return model.Set(s, siteTitleField, v) }

type Sprocket struct{ model.Base }

func init() {
	model.Register(&model.Schema{
		Tag:    "test.sprocket",
		Fields: []*model.FieldSpec{sprocketSizeField, sprocketSpinField},
		New:    func() model.Object { return &Sprocket{} },
	}, &Sprocket{})
}

func (s *Sprocket) Size() int64 {
	v, _ := model.Get[int64](s, sprocketSizeField)
	return v
}
func (s *Sprocket) SetSize(v int64) error { return model.Set(s, sprocketSizeField, v) }

func (s *Sprocket) Spin() int64 {
	v, _ := model.Get[int64](s, sprocketSpinField)
	return v
}
func (s *Sprocket) SetSpin(v int64) error { return model.Set(s, sprocketSpinField, v) }

type Widget struct{ model.Base }

func init() {
	model.Register(&model.Schema{
		Tag:    "test.widget",
		Fields: []*model.FieldSpec{widgetSprocketField, widgetChicletsField},
		New:    func() model.Object { return &Widget{} },
	}, &Widget{})
}

func (w *Widget) Sprocket() (*Sprocket, error) {
	v, err := model.Get[any](w, widgetSprocketField)
	if err != nil {
		var unset *model.FieldUnset
		if errors.As(err, &unset) {
			return nil, nil
		}
		return nil, err
	}
	sp, _ := v.(*Sprocket)
	return sp, nil
}

func (w *Widget) SetSprocket(s *Sprocket) error { return model.Set(w, widgetSprocketField, s) }

func (w *Widget) Chiclets() *model.PersistentList[int64] {
	v, _ := model.Get[*model.PersistentList[int64]](w, widgetChicletsField)
	return v
}

func (w *Widget) SetChiclets(items []int64) error {
	return model.Set(w, widgetChicletsField, items)
}

func newFolder() model.Folder { return &model.GenericFolder{} }

func newTestStore(t *testing.T) (*store.Store, string) {
	t.Helper()
	root := t.TempDir()
	return store.New(atomicfs.New(root), newFolder), root
}

func commit(t *testing.T, s *store.Store) error {
	t.Helper()
	sess, err := s.Session(context.Background())
	require.NoError(t, err)
	coord := txn.NewCoordinator()
	coord.Join(sess)
	coord.Join(s.FS)

	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.CommitDuration)
	return coord.Commit(context.Background())
}

func abort(t *testing.T, s *store.Store) error {
	t.Helper()
	sess, err := s.Session(context.Background())
	require.NoError(t, err)
	coord := txn.NewCoordinator()
	coord.Join(sess)
	coord.Join(s.FS)
	return coord.Abort(context.Background())
}
