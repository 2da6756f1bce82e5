package handlers

import (
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/koyabica/carrent/internal/service"
)

func createTestCar(env *testEnv, year int, names map[string]string) uint {
	rec, c := env.doJSON(http.MethodPost, "/api/v1/cars",
		map[string]any{"year": year, "names": names}, "")
	require.NoError(env.T, env.Cars.CreateCar(c))
	require.Equal(env.T, http.StatusCreated, rec.Code)
	return uint(decodeBody(env.T, rec)["id"].(float64))
}

func TestCreateCarHandler(t *testing.T) {
	env := newTestEnv(t)

	rec, c := env.doJSON(http.MethodPost, "/api/v1/cars",
		map[string]any{"year": 2020, "names": map[string]string{"en": "Sedan", "ru": "Седан"}}, "")
	require.NoError(t, env.Cars.CreateCar(c))
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "/api/v1/cars/1", rec.Header().Get(echo.HeaderLocation))

	body := decodeBody(t, rec)
	require.Equal(t, "Sedan", body["name"])
	require.EqualValues(t, 2020, body["year"])
	require.EqualValues(t, 0, body["users_count"])

	_, cBad := env.doJSON(http.MethodPost, "/api/v1/cars",
		map[string]any{"year": 1800, "names": map[string]string{"en": "Sedan"}}, "")
	err := env.Cars.CreateCar(cBad)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusBadRequest, he.Code)
}

func TestGetCarLocalized(t *testing.T) {
	env := newTestEnv(t)
	createTestCar(env, 2020, map[string]string{"en": "Sedan", "ru": "Седан"})

	rec, c := env.doJSON(http.MethodGet, "/api/v1/cars/1?lang=ru", nil, "")
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, env.Cars.GetCar(c))
	body := decodeBody(t, rec)
	require.Equal(t, "Седан", body["name"])
	// Off the default language the default name rides along.
	require.Equal(t, "Sedan", body["default_name"])

	recEn, cEn := env.doJSON(http.MethodGet, "/api/v1/cars/1", nil, "")
	cEn.SetParamNames("id")
	cEn.SetParamValues("1")
	require.NoError(t, env.Cars.GetCar(cEn))
	bodyEn := decodeBody(t, recEn)
	require.Equal(t, "Sedan", bodyEn["name"])
	_, hasDefault := bodyEn["default_name"]
	require.False(t, hasDefault)
}

func TestUpdateCarHandler(t *testing.T) {
	env := newTestEnv(t)
	createTestCar(env, 2020, map[string]string{"en": "Sedan", "ru": "Седан"})

	rec, c := env.doJSON(http.MethodPut, "/api/v1/cars/1",
		map[string]any{"year": 2021, "names": map[string]string{"en": "Wagon"}}, "")
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, env.Cars.UpdateCar(c))
	require.Equal(t, http.StatusOK, rec.Code)

	car, err := service.CarByID(env.DB, 1)
	require.NoError(t, err)
	require.Equal(t, 2021, car.Year)
	require.Len(t, car.Names, 1)
	require.Equal(t, "Wagon", car.LocalizedName("ru", false))
}

func TestDeleteCarHandler(t *testing.T) {
	env := newTestEnv(t)
	id := createTestCar(env, 2020, map[string]string{"en": "Sedan"})

	user := env.register("john", "john@example.com")
	car, err := service.CarByID(env.DB, id)
	require.NoError(t, err)
	require.NoError(t, service.AddCar(env.DB, user, car))

	rec, c := env.doJSON(http.MethodDelete, "/api/v1/cars/1", nil, "")
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, env.Cars.DeleteCar(c))
	require.Equal(t, http.StatusNoContent, rec.Code)

	_, err = service.CarByID(env.DB, id)
	require.Error(t, err)

	// The former owner is untouched.
	_, err = service.UserByID(env.DB, user.ID)
	require.NoError(t, err)
}

func TestAddAndRemoveCarForUser(t *testing.T) {
	env := newTestEnv(t)
	createTestCar(env, 2020, map[string]string{"en": "Sedan"})
	user := env.register("john", "john@example.com")

	rec, c := env.doJSON(http.MethodPost, "/api/v1/users/1/cars/1", nil, "")
	c.SetParamNames("id", "car_id")
	c.SetParamValues("1", "1")
	require.NoError(t, env.Users.AddCarToUser(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.EqualValues(t, 1, decodeBody(t, rec)["car_count"])

	recDel, cDel := env.doJSON(http.MethodDelete, "/api/v1/users/1/cars/1", nil, "")
	cDel.SetParamNames("id", "car_id")
	cDel.SetParamValues("1", "1")
	require.NoError(t, env.Users.RemoveCarFromUser(cDel))
	require.Equal(t, http.StatusOK, recDel.Code)
	require.EqualValues(t, 0, decodeBody(t, recDel)["car_count"])

	require.EqualValues(t, 0, service.CountCars(env.DB, user))
}
