package sqlinline

const QCreateJob = `--sql 925c7ee1-e2f5-477c-a931-1714ea797d5e
insert into generation_jobs(content_type, status, payload, params)
values ($1, 'queued', $2::jsonb, $3::jsonb)
returning id, created_at;
`

const QUpdateJobCheckpoint = `--sql c42d308f-dc91-40f8-98bc-0522f25ba159
update generation_jobs
set status = $2,
    payload = $3::jsonb,
    updated_at = now()
where id = $1;
`

const QGetJob = `--sql 0414e13c-4fa3-4db1-b788-c0491c19bbde
select id, content_type, status, payload, params,
       coalesce(lease_owner, ''), created_at, updated_at, approved_at, approved_by
from generation_jobs
where id = $1;
`

const QJobStatus = `--sql 50e04c9f-849e-4481-a4da-05aedeccfcdd
select status from generation_jobs where id = $1;
`

const QListJobsByStatus = `--sql 8e9b3866-5fe2-4285-986c-c3dd0bc37307
select id, content_type, status, payload, params,
       coalesce(lease_owner, ''), created_at, updated_at, approved_at, approved_by
from generation_jobs
where ($1::text = '' or content_type = $1)
  and ($2::text[] is null or status = any($2))
order by created_at asc;
`

const QCountJobsByStatus = `--sql 3f43a828-b38d-4daa-b739-8615d90e9a0b
select status, count(*)
from generation_jobs
where ($1::text = '' or content_type = $1)
group by status;
`

const QClaimNextJob = `--sql 8fe67798-0fda-4b6e-9c3d-3bf84770b0e0
with next_job as (
    select id
    from generation_jobs
    where status = 'queued'
    order by created_at asc
    for update skip locked
    limit 1
),
claimed as (
    update generation_jobs
    set status = 'processing',
        lease_owner = $1,
        lease_expires_at = now() + ($2 * interval '1 second'),
        payload = $3::jsonb,
        updated_at = now()
    where id in (select id from next_job)
    returning id, content_type, status, payload, params,
              coalesce(lease_owner, ''), created_at, updated_at, approved_at, approved_by
)
select * from claimed;
`

const QReclaimExpiredJobs = `--sql 27b7a60e-d7b1-423d-817e-c71463fc12db
update generation_jobs
set status = 'queued',
    lease_owner = null,
    lease_expires_at = null,
    payload = $1::jsonb,
    updated_at = now()
where status = 'processing'
  and lease_expires_at is not null
  and lease_expires_at < now();
`

const QApproveJob = `--sql 4966df78-42ad-4fdf-bb79-11c8bd1224e4
update generation_jobs
set status = 'approved',
    payload = $3::jsonb,
    approved_at = now(),
    approved_by = $2,
    lease_owner = null,
    lease_expires_at = null,
    updated_at = now()
where id = $1
  and status = 'completed'
returning id;
`
