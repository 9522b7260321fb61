package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/ratewalk/cache"
	"github.com/use-agent/ratewalk/models"
	"github.com/use-agent/ratewalk/walker"
)

// Awards returns a handler for GET /api/v1/awards.
//
// The listing is served from cc when fresh; ?refresh=true forces a new
// read from the calculator.
func Awards(b Browser, w *walker.Walker, startURL string, cc *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := cache.Key(startURL)
		if cc != nil && c.Query("refresh") != "true" {
			if awards, hit := cc.Get(key, 0); hit {
				c.JSON(http.StatusOK, models.AwardsResponse{
					Success:     true,
					Awards:      awards,
					CacheStatus: "hit",
				})
				return
			}
		}

		form, release, err := b.NewForm(true)
		if err != nil {
			respondError(c, err)
			return
		}
		defer release()

		awards, err := w.ListAwards(c.Request.Context(), walker.AwardListingPlan(startURL), form)
		if err != nil {
			respondError(c, err)
			return
		}
		if len(awards) == 0 {
			respondError(c, models.NewWalkError(models.ErrCodeExtraction, "calculator listed no awards", nil))
			return
		}

		resp := models.AwardsResponse{Success: true, Awards: awards}
		if cc != nil {
			cc.Set(key, awards)
			resp.CacheStatus = "miss"
		}
		c.JSON(http.StatusOK, resp)
	}
}
