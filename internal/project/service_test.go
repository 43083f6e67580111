package project_test

import (
	"log/slog"
	"os"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/expenseops/expense-approval/internal"
	"github.com/expenseops/expense-approval/internal/auth"
	"github.com/expenseops/expense-approval/internal/project"
)

func TestProjectService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Project Service Suite")
}

type mockProjectRepository struct {
	projects  map[int64]*project.Project
	revisions map[int64][]*project.Revision
	nextID    int64
}

func newMockProjectRepository() *mockProjectRepository {
	return &mockProjectRepository{
		projects:  make(map[int64]*project.Project),
		revisions: make(map[int64][]*project.Revision),
		nextID:    1,
	}
}

func (m *mockProjectRepository) Create(p *project.Project) error {
	p.ID = m.nextID
	m.nextID++
	m.projects[p.ID] = p
	return nil
}

func (m *mockProjectRepository) GetByID(id int64) (*project.Project, error) {
	p, exists := m.projects[id]
	if !exists {
		return nil, project.ErrProjectNotFound
	}
	copied := *p
	return &copied, nil
}

func (m *mockProjectRepository) GetAll(limit, offset int) ([]*project.Project, error) {
	all := make([]*project.Project, 0, len(m.projects))
	for _, p := range m.projects {
		all = append(all, p)
	}
	return all, nil
}

func (m *mockProjectRepository) UpdateStatus(id int64, from, to project.Status) (bool, error) {
	p, exists := m.projects[id]
	if !exists || p.Status != from {
		return false, nil
	}
	p.Status = to
	return true, nil
}

func (m *mockProjectRepository) ApplyValueChange(projectID int64, newValue int64, revision *project.Revision) error {
	p, exists := m.projects[projectID]
	if !exists {
		return project.ErrProjectNotFound
	}
	m.revisions[projectID] = append(m.revisions[projectID], revision)
	p.Value = newValue
	return nil
}

func (m *mockProjectRepository) GetRevisions(projectID int64) ([]*project.Revision, error) {
	return m.revisions[projectID], nil
}

var _ = Describe("ProjectService", func() {
	var (
		service  *project.Service
		mockRepo *mockProjectRepository
		admin    *auth.User
		staff    *auth.User
	)

	BeforeEach(func() {
		mockRepo = newMockProjectRepository()
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = project.NewService(mockRepo, logger)
		admin = &auth.User{ID: 30, Role: auth.RoleAdmin, IsActive: true}
		staff = &auth.User{ID: 10, Role: auth.RoleStaff, IsActive: true}
	})

	createProject := func() *project.Project {
		p, err := service.CreateProject(project.CreateProjectDTO{
			Name:     "Website Revamp",
			Client:   "PT Maju Bersama",
			Value:    250_000_000,
			Deadline: time.Now().AddDate(0, 6, 0),
		}, admin)
		Expect(err).ToNot(HaveOccurred())
		return p
	}

	Describe("CreateProject", func() {
		It("starts the project as ACTIVE", func() {
			p := createProject()
			Expect(p.Status).To(Equal(project.StatusActive))
			Expect(p.CreatedBy).To(Equal(admin.ID))
		})

		It("refuses non-admin roles", func() {
			_, err := service.CreateProject(project.CreateProjectDTO{
				Name:     "Rogue Project",
				Client:   "Nobody",
				Value:    1,
				Deadline: time.Now(),
			}, staff)

			Expect(err).To(HaveOccurred())
			appErr, _ := internal.IsAppError(err)
			Expect(appErr.StatusCode).To(Equal(403))
		})
	})

	Describe("UpdateStatus", func() {
		It("allows pausing and resuming", func() {
			p := createProject()

			paused, err := service.UpdateStatus(p.ID, project.StatusOnHold, admin)
			Expect(err).ToNot(HaveOccurred())
			Expect(paused.Status).To(Equal(project.StatusOnHold))

			resumed, err := service.UpdateStatus(p.ID, project.StatusActive, admin)
			Expect(err).ToNot(HaveOccurred())
			Expect(resumed.Status).To(Equal(project.StatusActive))
		})

		It("treats COMPLETED as terminal", func() {
			p := createProject()
			_, err := service.UpdateStatus(p.ID, project.StatusCompleted, admin)
			Expect(err).ToNot(HaveOccurred())

			_, err = service.UpdateStatus(p.ID, project.StatusActive, admin)
			Expect(err).To(HaveOccurred())
			appErr, _ := internal.IsAppError(err)
			Expect(appErr.StatusCode).To(Equal(409))
		})

		It("cannot complete a project on hold without resuming first", func() {
			p := createProject()
			_, err := service.UpdateStatus(p.ID, project.StatusOnHold, admin)
			Expect(err).ToNot(HaveOccurred())

			_, err = service.UpdateStatus(p.ID, project.StatusCompleted, admin)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("UpdateValue", func() {
		It("updates the value and appends a revision", func() {
			p := createProject()

			updated, err := service.UpdateValue(p.ID, project.UpdateValueDTO{
				NewValue: 300_000_000,
				Reason:   "scope extension for phase two",
			}, admin)
			Expect(err).ToNot(HaveOccurred())
			Expect(updated.Value).To(Equal(int64(300_000_000)))

			revisions, err := service.GetRevisions(p.ID, admin)
			Expect(err).ToNot(HaveOccurred())
			Expect(revisions).To(HaveLen(1))
			Expect(revisions[0].OldValue).To(Equal(int64(250_000_000)))
			Expect(revisions[0].NewValue).To(Equal(int64(300_000_000)))
			Expect(revisions[0].ChangedBy).To(Equal(admin.ID))
		})

		It("rejects an unchanged value", func() {
			p := createProject()

			_, err := service.UpdateValue(p.ID, project.UpdateValueDTO{
				NewValue: 250_000_000,
				Reason:   "no actual change intended",
			}, admin)

			Expect(err).To(HaveOccurred())
			appErr, _ := internal.IsAppError(err)
			Expect(appErr.Code).To(Equal(internal.ErrCodeValueUnchanged))
		})

		It("rejects a short reason without touching the value", func() {
			p := createProject()

			_, err := service.UpdateValue(p.ID, project.UpdateValueDTO{
				NewValue: 100_000_000,
				Reason:   "cut",
			}, admin)
			Expect(err).To(HaveOccurred())

			current, _ := service.GetProject(p.ID, admin)
			Expect(current.Value).To(Equal(int64(250_000_000)))

			revisions, _ := service.GetRevisions(p.ID, admin)
			Expect(revisions).To(BeEmpty())
		})

		It("rejects a non-positive value", func() {
			p := createProject()

			_, err := service.UpdateValue(p.ID, project.UpdateValueDTO{
				NewValue: -5,
				Reason:   "negative contract value",
			}, admin)
			Expect(err).To(HaveOccurred())
		})

		It("keeps one revision per change in order", func() {
			p := createProject()

			_, err := service.UpdateValue(p.ID, project.UpdateValueDTO{NewValue: 300_000_000, Reason: "scope extension one"}, admin)
			Expect(err).ToNot(HaveOccurred())
			_, err = service.UpdateValue(p.ID, project.UpdateValueDTO{NewValue: 280_000_000, Reason: "partial descoping later"}, admin)
			Expect(err).ToNot(HaveOccurred())

			revisions, _ := service.GetRevisions(p.ID, admin)
			Expect(revisions).To(HaveLen(2))
			Expect(revisions[1].OldValue).To(Equal(int64(300_000_000)))
		})
	})
})
