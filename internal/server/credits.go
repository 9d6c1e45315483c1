package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// GetCredits returns the user's balance. Reads are cached briefly:
// the wizard polls this endpoint, and a slightly stale balance is
// acceptable between writes (writes invalidate the cache).
func (s *Server) GetCredits(c *gin.Context) {
	user := userID(c)

	if account, ok := s.balanceCache.Get(user); ok {
		c.JSON(http.StatusOK, gin.H{"data": account, "cached": true})
		return
	}

	account, err := s.creditSvc.GetBalance(c.Request.Context(), user)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	s.balanceCache.Set(user, account, balanceCacheTTL)
	c.JSON(http.StatusOK, gin.H{"data": account})
}

func (s *Server) ListCreditTransactions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	transactions, err := s.creditSvc.ListTransactions(c.Request.Context(), userID(c), limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": transactions})
}

// GetUsageTotals reports aggregate token spend. With ?job_id it returns
// the per-document records of a single run instead.
func (s *Server) GetUsageTotals(c *gin.Context) {
	if jobID := c.Query("job_id"); jobID != "" {
		records, err := s.usageSvc.ListByJob(c.Request.Context(), jobID)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": records})
		return
	}

	totals, err := s.usageSvc.TotalsByUser(c.Request.Context(), userID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": totals})
}
