package vision_test

import (
	"context"

	"github.com/juju/errors"
	jc "github.com/juju/testing/checkers"
	"go.uber.org/mock/gomock"
	gc "gopkg.in/check.v1"

	"github.com/ginjaninja78/vision-connector/internal/envelope"
	"github.com/ginjaninja78/vision-connector/internal/vision"
)

type serviceSuite struct {
	baseSuite
}

var _ = gc.Suite(&serviceSuite{})

func (s *serviceSuite) TestPing(c *gc.C) {
	ctrl := gomock.NewController(c)
	defer ctrl.Finish()
	s.endpoint = NewMockEndpoint(ctrl)

	s.expect(vision.OpMyTest, "Hello from Vision")
	c.Assert(vision.Ping(context.Background(), s.endpoint), jc.IsTrue)

	s.expect(vision.OpMyTest, "")
	c.Assert(vision.Ping(context.Background(), s.endpoint), jc.IsFalse)

	s.expectError(vision.OpMyTest, errors.New("no route to host"))
	c.Assert(vision.Ping(context.Background(), s.endpoint), jc.IsFalse)
}

func (s *serviceSuite) TestCanAuthenticate(c *gc.C) {
	ctrl := gomock.NewController(c)
	defer ctrl.Finish()
	s.endpoint = NewMockEndpoint(ctrl)

	s.expect(vision.OpValidateLogin,
		"f6d2a8c0-session",
		`<DLTKVisionMessage><ReturnCode>ErrLoginVal</ReturnCode><ReturnDesc>Invalid login</ReturnDesc></DLTKVisionMessage>`,
	)
	s.expectError(vision.OpValidateLogin, errors.New("timeout"))

	c.Assert(vision.CanAuthenticate(context.Background(), s.endpoint, creds), jc.IsTrue)
	c.Assert(vision.CanAuthenticate(context.Background(), s.endpoint, creds), jc.IsFalse)
	c.Assert(vision.CanAuthenticate(context.Background(), s.endpoint, creds), jc.IsFalse)
	c.Assert(s.param(c, 0, vision.ParamConnInfo), gc.Equals, envelope.LoginConnInfo("VISION", "ADMIN", "secret"))
}

func (s *serviceSuite) TestDatabases(c *gc.C) {
	ctrl := gomock.NewController(c)
	defer ctrl.Finish()
	s.endpoint = NewMockEndpoint(ctrl)

	s.expect(vision.OpGetDatabases,
		`<databases><desc>VISION</desc><desc>VISION_TEST</desc></databases>`,
		`<error>denied</error>`,
	)

	names, err := vision.Databases(context.Background(), s.endpoint)
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(names, jc.DeepEquals, []string{"VISION", "VISION_TEST"})

	_, err = vision.Databases(context.Background(), s.endpoint)
	c.Assert(err, gc.ErrorMatches, `databases response with root "error" not valid`)
}
