package authcore_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/MrEthical07/authcore"
)

var _ = Describe("Login flow", func() {
	var (
		ctx    context.Context
		f      *fixture
		userID string
	)

	login := func(pass, identifier string) (*authcore.TokenPair, error) {
		return f.engine.Login(ctx, authcore.LoginRequest{
			Email:      testEmail,
			Password:   pass,
			Identifier: identifier,
		})
	}

	BeforeEach(func() {
		ctx = context.Background()

		var err error
		f, err = buildFixture(fastConfig(), nil)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(f.engine.Close)

		rec, err := f.engine.Register(ctx, testEmail, testPassword)
		Expect(err).NotTo(HaveOccurred())
		userID = rec.ID
	})

	Describe("the attempt gate", func() {
		BeforeEach(func() {
			for i := 0; i < 5; i++ {
				_, err := login(wrongPass, "203.0.113.9")
				Expect(err).To(MatchError(authcore.ErrInvalidCredentials))
			}
		})

		It("refuses the sixth attempt even with the right password", func() {
			_, err := login(testPassword, "203.0.113.9")
			Expect(err).To(MatchError(authcore.ErrRateLimited))
			Expect(authcore.ErrorCode(err)).To(Equal(authcore.CodeRateLimited))
		})

		It("keeps refusing until the window has passed", func() {
			f.clock.Advance(14 * time.Minute)
			_, err := login(testPassword, "203.0.113.9")
			Expect(err).To(MatchError(authcore.ErrRateLimited))

			f.clock.Advance(time.Minute + time.Second)
			_, err = login(testPassword, "203.0.113.9")
			Expect(err).To(MatchError(authcore.ErrAccountLocked))
		})

		It("does not affect other identifiers", func() {
			_, err := login(wrongPass, "203.0.113.10")
			Expect(err).To(MatchError(authcore.ErrInvalidCredentials))
		})
	})

	Describe("the account lock", func() {
		BeforeEach(func() {
			for i := 0; i < 5; i++ {
				_, _ = login(wrongPass, "")
			}
		})

		It("sets the lock flag at the threshold", func() {
			rec, err := f.users.GetByID(ctx, userID)
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.Locked).To(BeTrue())
			Expect(rec.FailedAttempts).To(Equal(5))
		})

		It("refuses a correct password with AccountLocked", func() {
			_, err := login(testPassword, "fresh-identifier")
			Expect(err).To(MatchError(authcore.ErrAccountLocked))
		})

		It("does not clear with time", func() {
			f.clock.Advance(24 * time.Hour)
			_, err := login(testPassword, "fresh-identifier")
			Expect(err).To(MatchError(authcore.ErrAccountLocked))
		})

		It("clears with UnlockAccount", func() {
			Expect(f.engine.UnlockAccount(ctx, userID)).To(Succeed())
			pair, err := login(testPassword, "fresh-identifier")
			Expect(err).NotTo(HaveOccurred())
			Expect(pair.AccessToken).NotTo(BeEmpty())
		})

		It("clears with ResetPassword", func() {
			Expect(f.engine.ResetPassword(ctx, userID, "An0ther!Secret")).To(Succeed())
			_, err := login("An0ther!Secret", "fresh-identifier")
			Expect(err).NotTo(HaveOccurred())
		})
	})
})

var _ = Describe("Token flow", func() {
	var (
		ctx  context.Context
		f    *fixture
		pair *authcore.TokenPair
	)

	BeforeEach(func() {
		ctx = context.Background()

		var err error
		f, err = buildFixture(fastConfig(), nil)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(f.engine.Close)

		_, err = f.engine.Register(ctx, testEmail, testPassword)
		Expect(err).NotTo(HaveOccurred())
		pair, err = f.engine.Login(ctx, authcore.LoginRequest{Email: testEmail, Password: testPassword})
		Expect(err).NotTo(HaveOccurred())
	})

	It("authenticates the access token until it expires", func() {
		_, err := f.engine.Authenticate(ctx, pair.AccessToken)
		Expect(err).NotTo(HaveOccurred())

		f.clock.Advance(30*time.Minute + time.Second)
		_, err = f.engine.Authenticate(ctx, pair.AccessToken)
		Expect(err).To(MatchError(authcore.ErrTokenInvalid))
	})

	It("refreshes for seven days", func() {
		f.clock.Advance(6 * 24 * time.Hour)
		refreshed, err := f.engine.Refresh(ctx, pair.RefreshToken)
		Expect(err).NotTo(HaveOccurred())

		principal, err := f.engine.Authenticate(ctx, refreshed.AccessToken)
		Expect(err).NotTo(HaveOccurred())
		Expect(principal.Email).To(Equal(testEmail))

		f.clock.Advance(24*time.Hour + time.Second)
		_, err = f.engine.Refresh(ctx, pair.RefreshToken)
		Expect(err).To(MatchError(authcore.ErrTokenInvalid))
	})

	It("rejects tokens signed by another engine", func() {
		other, err := buildFixture(fastConfig(), nil)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(other.engine.Close)

		_, err = other.engine.Authenticate(ctx, pair.AccessToken)
		Expect(err).To(MatchError(authcore.ErrTokenInvalid))
	})
})
