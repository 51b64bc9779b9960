package auth

import (
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	userDatamodel "github.com/navgurukul/leave-management/internal/core/datamodel/user"
)

var _ = ginkgo.Describe("AccessMatrix", func() {
	ginkgo.Describe("AccessibleViews", func() {
		ginkgo.It("should give students exactly their own view and the profile", func() {
			gomega.Expect(AccessibleViews(userDatamodel.RoleUser)).To(gomega.Equal(
				[]View{ViewUser, ViewProfile}))
		})

		ginkgo.It("should give admins exactly the admin view and the profile", func() {
			gomega.Expect(AccessibleViews(userDatamodel.RoleAdmin)).To(gomega.Equal(
				[]View{ViewAdmin, ViewProfile}))
		})

		ginkgo.It("should give sub-admins the admin and sub-admin views plus role management", func() {
			gomega.Expect(AccessibleViews(userDatamodel.RoleSubAdmin)).To(gomega.Equal(
				[]View{ViewAdmin, ViewSubAdmin, ViewRoleMgmt, ViewProfile}))
		})

		ginkgo.It("should give super-admins every approver view plus role management", func() {
			gomega.Expect(AccessibleViews(userDatamodel.RoleSuperAdmin)).To(gomega.Equal(
				[]View{ViewAdmin, ViewSubAdmin, ViewSuperAdmin, ViewRoleMgmt, ViewProfile}))
		})

		ginkgo.It("should give an unknown role nothing", func() {
			gomega.Expect(AccessibleViews(userDatamodel.Role("manager"))).To(gomega.BeNil())
		})
	})

	ginkgo.Describe("CanAccess", func() {
		ginkgo.It("should keep the student view exclusive to students", func() {
			gomega.Expect(CanAccess(userDatamodel.RoleUser, ViewUser)).To(gomega.BeTrue())
			gomega.Expect(CanAccess(userDatamodel.RoleAdmin, ViewUser)).To(gomega.BeFalse())
			gomega.Expect(CanAccess(userDatamodel.RoleSubAdmin, ViewUser)).To(gomega.BeFalse())
			gomega.Expect(CanAccess(userDatamodel.RoleSuperAdmin, ViewUser)).To(gomega.BeFalse())
		})

		ginkgo.It("should deny admins the sub-admin view and grant super-admins the admin view", func() {
			gomega.Expect(CanAccess(userDatamodel.RoleAdmin, ViewSubAdmin)).To(gomega.BeFalse())
			gomega.Expect(CanAccess(userDatamodel.RoleSuperAdmin, ViewAdmin)).To(gomega.BeTrue())
		})

		ginkgo.It("should open role management only at the sub-admin tier", func() {
			gomega.Expect(CanAccess(userDatamodel.RoleUser, ViewRoleMgmt)).To(gomega.BeFalse())
			gomega.Expect(CanAccess(userDatamodel.RoleAdmin, ViewRoleMgmt)).To(gomega.BeFalse())
			gomega.Expect(CanAccess(userDatamodel.RoleSubAdmin, ViewRoleMgmt)).To(gomega.BeTrue())
			gomega.Expect(CanAccess(userDatamodel.RoleSuperAdmin, ViewRoleMgmt)).To(gomega.BeTrue())
		})

		ginkgo.It("should keep the super-admin view exclusive", func() {
			gomega.Expect(CanAccess(userDatamodel.RoleSubAdmin, ViewSuperAdmin)).To(gomega.BeFalse())
			gomega.Expect(CanAccess(userDatamodel.RoleSuperAdmin, ViewSuperAdmin)).To(gomega.BeTrue())
		})

		ginkgo.It("should open the profile view to every role", func() {
			for _, role := range []userDatamodel.Role{
				userDatamodel.RoleUser,
				userDatamodel.RoleAdmin,
				userDatamodel.RoleSubAdmin,
				userDatamodel.RoleSuperAdmin,
			} {
				gomega.Expect(CanAccess(role, ViewProfile)).To(gomega.BeTrue())
			}
		})
	})
})
