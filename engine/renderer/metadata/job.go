package metadata

/**
 * @brief Describes a job to be run by the job system.
 */
type JobTask struct {
	/** @brief Name used in logs when the job fails. */
	Name string
	/** @brief Invoked on a worker when the job starts. Required. */
	OnStart func() error
	/** @brief Invoked after OnStart succeeded. Optional. */
	OnComplete func()
	/** @brief Invoked with the error OnStart returned. Optional. */
	OnFailure func(err error)
}
