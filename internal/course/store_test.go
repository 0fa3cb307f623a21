package course_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uniportal/internal/course"
	"uniportal/internal/kv"
)

const teacher = "teacher@email.com"

func TestCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("NormalizesID", func(t *testing.T) {
		store := course.NewStore(kv.NewMemory())
		crs, err := store.Create(ctx, teacher, "cs101", "Intro")
		require.NoError(t, err)
		assert.Equal(t, "CS101", crs.ID)
		assert.Equal(t, "Intro", crs.Name)
		assert.Equal(t, teacher, crs.Teacher)
		assert.Empty(t, crs.Students)
	})

	t.Run("DuplicateDiffersOnlyInCase", func(t *testing.T) {
		store := course.NewStore(kv.NewMemory())
		_, err := store.Create(ctx, teacher, "CS101", "Intro")
		require.NoError(t, err)
		_, err = store.Create(ctx, teacher, "cs101", "Intro Again")
		assert.ErrorIs(t, err, course.ErrDuplicateID)

		all, err := store.ListAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("MissingFields", func(t *testing.T) {
		store := course.NewStore(kv.NewMemory())
		_, err := store.Create(ctx, teacher, "", "Intro")
		assert.ErrorIs(t, err, course.ErrMissingField)
		_, err = store.Create(ctx, teacher, "CS101", "")
		assert.ErrorIs(t, err, course.ErrMissingField)
	})

	t.Run("InsertionOrderPreserved", func(t *testing.T) {
		store := course.NewStore(kv.NewMemory())
		for _, id := range []string{"MA201", "CS101", "PH301"} {
			_, err := store.Create(ctx, teacher, id, "Course "+id)
			require.NoError(t, err)
		}
		all, err := store.ListAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, "MA201", all[0].ID)
		assert.Equal(t, "CS101", all[1].ID)
		assert.Equal(t, "PH301", all[2].ID)
	})
}

func TestEnroll(t *testing.T) {
	ctx := context.Background()
	student := "student1@example.com"

	t.Run("Success", func(t *testing.T) {
		store := course.NewStore(kv.NewMemory())
		_, err := store.Create(ctx, teacher, "CS101", "Intro")
		require.NoError(t, err)

		require.NoError(t, store.Enroll(ctx, "CS101", student))
		enrolled, err := store.ListEnrolledFor(ctx, student)
		require.NoError(t, err)
		require.Len(t, enrolled, 1)
		assert.Equal(t, "CS101", enrolled[0].ID)
	})

	t.Run("TwiceFailsAndRosterGrowsByOne", func(t *testing.T) {
		store := course.NewStore(kv.NewMemory())
		_, err := store.Create(ctx, teacher, "CS101", "Intro")
		require.NoError(t, err)

		require.NoError(t, store.Enroll(ctx, "CS101", student))
		err = store.Enroll(ctx, "CS101", student)
		assert.ErrorIs(t, err, course.ErrAlreadyEnrolled)

		all, err := store.ListAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Len(t, all[0].Students, 1)
	})

	t.Run("UnknownCourse", func(t *testing.T) {
		store := course.NewStore(kv.NewMemory())
		err := store.Enroll(ctx, "NOPE42", student)
		assert.ErrorIs(t, err, course.ErrNotFound)
	})

	t.Run("LowercaseLookupFindsNormalizedID", func(t *testing.T) {
		store := course.NewStore(kv.NewMemory())
		_, err := store.Create(ctx, teacher, "CS101", "Intro")
		require.NoError(t, err)
		assert.NoError(t, store.Enroll(ctx, "cs101", student))
	})
}

func TestListByTeacher(t *testing.T) {
	ctx := context.Background()
	store := course.NewStore(kv.NewMemory())

	_, err := store.Create(ctx, teacher, "CS101", "Intro")
	require.NoError(t, err)
	_, err = store.Create(ctx, "other@email.com", "MA201", "Calculus")
	require.NoError(t, err)

	mine, err := store.ListByTeacher(ctx, teacher)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "CS101", mine[0].ID)
}

func TestCorruptCollectionTreatedAsEmpty(t *testing.T) {
	ctx := context.Background()
	backing := kv.NewMemory()
	require.NoError(t, backing.Set(ctx, "registeredCourses", "{definitely not json"))

	store := course.NewStore(backing)
	all, err := store.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	// The store stays writable after hitting corrupt data.
	_, err = store.Create(ctx, teacher, "CS101", "Intro")
	require.NoError(t, err)
	all, err = store.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestPersistedRoundTrip(t *testing.T) {
	// A second store over the same backing namespace must see the
	// collection exactly as written.
	ctx := context.Background()
	backing := kv.NewMemory()

	first := course.NewStore(backing)
	_, err := first.Create(ctx, teacher, "CS101", "Intro")
	require.NoError(t, err)
	require.NoError(t, first.Enroll(ctx, "CS101", "student1@example.com"))

	second := course.NewStore(backing)
	all, err := second.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, course.Course{
		ID:       "CS101",
		Name:     "Intro",
		Teacher:  teacher,
		Students: []string{"student1@example.com"},
	}, all[0])
}
