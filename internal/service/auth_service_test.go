package service_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/spec-kit/campus-support/internal/config"
	"github.com/spec-kit/campus-support/internal/domain"
	"github.com/spec-kit/campus-support/internal/service"
)

var _ = Describe("AuthService", func() {
	var (
		userRepo *mockUserRepo
		svc      *service.AuthService
		ctx      context.Context
		deptID   int64
	)

	BeforeEach(func() {
		userRepo = newMockUserRepo()
		ctx = context.Background()
		deptID = 1
		svc = service.NewAuthService(config.AuthConfig{
			JWTSecret:             "test-secret",
			AccessTokenTTLMinutes: 60,
			BcryptCost:            4,
		}, userRepo)
	})

	Describe("Register", func() {
		It("creates a student by default with a normalized email", func() {
			user, err := svc.Register(ctx, service.RegisterInput{
				Email:    "  Student@Campus.EDU ",
				FullName: "Ali Veli",
				Password: "sifre123",
			})
			Expect(err).ToNot(HaveOccurred())
			Expect(user.Email).To(Equal("student@campus.edu"))
			Expect(user.Role).To(Equal(domain.RoleStudent))
			Expect(user.IsActive).To(BeTrue())
			Expect(user.PasswordHash).ToNot(Equal("sifre123"))
		})

		It("rejects short passwords", func() {
			_, err := svc.Register(ctx, service.RegisterInput{Email: "a@b.c", Password: "123"})
			Expect(errCode(err)).To(Equal("VALIDATION_FAILED"))
		})

		It("rejects invalid emails", func() {
			_, err := svc.Register(ctx, service.RegisterInput{Email: "not-an-email", Password: "sifre123"})
			Expect(errCode(err)).To(Equal("VALIDATION_FAILED"))
		})

		It("rejects duplicate emails", func() {
			_, err := svc.Register(ctx, service.RegisterInput{Email: "a@b.c", Password: "sifre123"})
			Expect(err).ToNot(HaveOccurred())

			_, err = svc.Register(ctx, service.RegisterInput{Email: "A@B.C", Password: "sifre123"})
			Expect(errCode(err)).To(Equal("VALIDATION_FAILED"))
		})

		It("requires a department for support and department roles", func() {
			_, err := svc.Register(ctx, service.RegisterInput{
				Email:    "s@b.c",
				Password: "sifre123",
				Role:     domain.RoleSupport,
			})
			Expect(errCode(err)).To(Equal("VALIDATION_FAILED"))

			_, err = svc.Register(ctx, service.RegisterInput{
				Email:        "s@b.c",
				Password:     "sifre123",
				Role:         domain.RoleSupport,
				DepartmentID: &deptID,
			})
			Expect(err).ToNot(HaveOccurred())
		})

		It("rejects unknown roles", func() {
			_, err := svc.Register(ctx, service.RegisterInput{
				Email:    "x@b.c",
				Password: "sifre123",
				Role:     domain.Role("superuser"),
			})
			Expect(errCode(err)).To(Equal("VALIDATION_FAILED"))
		})
	})

	Describe("Login", func() {
		BeforeEach(func() {
			_, err := svc.Register(ctx, service.RegisterInput{Email: "a@b.c", Password: "sifre123"})
			Expect(err).ToNot(HaveOccurred())
		})

		It("issues a parsable token for valid credentials", func() {
			token, expiresAt, err := svc.Login(ctx, "a@b.c", "sifre123")
			Expect(err).ToNot(HaveOccurred())
			Expect(token).ToNot(BeEmpty())
			Expect(expiresAt).To(BeTemporally(">", time.Now()))

			userID, claims, err := svc.TokenManager().ParseToken(token)
			Expect(err).ToNot(HaveOccurred())
			Expect(userID).To(BeNumerically(">", 0))
			Expect(claims.Role).To(Equal(domain.RoleStudent))
		})

		It("does not reveal whether the email exists", func() {
			_, _, wrongPassword := svc.Login(ctx, "a@b.c", "yanlis")
			_, _, unknownEmail := svc.Login(ctx, "ghost@b.c", "sifre123")

			Expect(errCode(wrongPassword)).To(Equal("UNAUTHORIZED"))
			Expect(errCode(unknownEmail)).To(Equal("UNAUTHORIZED"))
			Expect(wrongPassword.Error()).To(Equal(unknownEmail.Error()))
		})

		It("accepts case-insensitive email on login", func() {
			_, _, err := svc.Login(ctx, "A@B.C", "sifre123")
			Expect(err).ToNot(HaveOccurred())
		})
	})
})
