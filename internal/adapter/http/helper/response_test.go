package helper

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/gomega"
)

func render(send func(c *gin.Context)) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	send(c)

	return w
}

func TestSendSuccess(t *testing.T) {
	RegisterTestingT(t)

	w := render(func(c *gin.Context) {
		SendSuccess(c, http.StatusOK, []string{}, "0 todos retrieved successfully")
	})

	Expect(w.Code).To(Equal(http.StatusOK))
	Expect(w.Body.String()).To(MatchJSON(`{"success":true,"data":[],"status_code":200,"message":"0 todos retrieved successfully"}`))
}

func TestSendSuccess_NilDataNoMessage(t *testing.T) {
	RegisterTestingT(t)

	w := render(func(c *gin.Context) {
		SendSuccess(c, http.StatusOK, nil, "")
	})

	Expect(w.Body.String()).To(MatchJSON(`{"success":true,"data":null,"status_code":200}`))
}

func TestSendErrors(t *testing.T) {
	RegisterTestingT(t)

	notFound := render(func(c *gin.Context) { SendNotFoundError(c, MsgResourceNotFound) })
	Expect(notFound.Code).To(Equal(http.StatusNotFound))
	Expect(notFound.Body.String()).To(MatchJSON(`{"success":false,"data":null,"status_code":404,"message":"Resource not found"}`))

	badRequest := render(func(c *gin.Context) { SendBadRequestError(c, "Invalid todo ID") })
	Expect(badRequest.Code).To(Equal(http.StatusBadRequest))
	Expect(badRequest.Body.String()).To(MatchJSON(`{"success":false,"data":null,"status_code":400,"message":"Invalid todo ID"}`))

	internal := render(func(c *gin.Context) { SendInternalError(c) })
	Expect(internal.Code).To(Equal(http.StatusInternalServerError))
	Expect(internal.Body.String()).To(MatchJSON(`{"success":false,"data":null,"status_code":500,"message":"Internal server error"}`))
}

func TestSendValidationError(t *testing.T) {
	RegisterTestingT(t)

	w := render(func(c *gin.Context) {
		SendValidationError(c, errors.New("Document failed validation"))
	})

	Expect(w.Code).To(Equal(http.StatusBadRequest))
	Expect(w.Body.String()).To(MatchJSON(`{"success":false,"data":null,"status_code":400,"message":"Validation failed: Document failed validation"}`))
}
